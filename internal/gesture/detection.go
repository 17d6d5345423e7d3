package gesture

import (
	"time"

	"github.com/google/uuid"
)

// DetectionEvent is the raw per-frame output of an external detector before
// interpretation. It is ephemeral: the router consumes it exactly once.
type DetectionEvent struct {
	// ID uniquely identifies this observation.
	ID string

	// Detector is the registered name of the producing detector
	// ("hand", "arm", "pose", "voice").
	Detector string

	// Type is the modality the observation belongs to.
	Type Type

	// Payload carries detector-specific data (landmark sets, transcript
	// fragments). The router never inspects it; interpreters do.
	Payload map[string]any

	// FrameID links observations from the same capture frame.
	FrameID uint64

	// Timestamp is when the detector produced the observation.
	Timestamp time.Time
}

// NewDetectionEvent creates an event stamped with a fresh ID and the given
// timestamp.
func NewDetectionEvent(detector string, typ Type, payload map[string]any, ts time.Time) DetectionEvent {
	return DetectionEvent{
		ID:        uuid.NewString(),
		Detector:  detector,
		Type:      typ,
		Payload:   payload,
		Timestamp: ts,
	}
}
