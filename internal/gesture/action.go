package gesture

import (
	"time"

	"github.com/google/uuid"
)

// Action is a fully authorized, ready-to-execute command. It is the unit
// handed to the executor layer; nothing downstream re-validates it.
type Action struct {
	// ID uniquely identifies this dispatch.
	ID string

	// Kind is the executor family: "keyboard", "mouse", "bash", "window",
	// "script".
	Kind string

	// Command is the executor-specific command string.
	Command string

	// Gesture is the name of the gesture that triggered the action.
	Gesture string

	// Source is the modality that produced the gesture.
	Source Type

	// Hand is the detected hand, if any.
	Hand Hand

	// Confidence is the triggering gesture's confidence.
	Confidence float64

	// Priority is the resolved dispatch priority.
	Priority Priority

	// Continuous marks actions driven by an active continuous gesture.
	Continuous bool

	// Sequence marks actions triggered by a synthesized sequence gesture.
	Sequence bool

	// Profile is the name of the profile that authorized the action.
	Profile string

	// Parameters are rule-specific extras passed through to the executor.
	Parameters map[string]any

	// Timestamp is when the action was authorized.
	Timestamp time.Time
}

// NewAction creates an action with a fresh ID.
func NewAction(kind, command string, ts time.Time) Action {
	return Action{
		ID:        uuid.NewString(),
		Kind:      kind,
		Command:   command,
		Timestamp: ts,
	}
}
