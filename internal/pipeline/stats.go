package pipeline

import (
	"sync/atomic"
	"time"
)

// stats counters are incremented from both worker goroutines and from
// producer callers, so every field is atomic.
type stats struct {
	detections        atomic.Uint64
	interpreted       atomic.Uint64
	interpreterErrors atomic.Uint64
	invalid           atomic.Uint64
	stale             atomic.Uint64
	fused             atomic.Uint64
	debounced         atomic.Uint64
	sequences         atomic.Uint64
	statesPurged      atomic.Uint64
	suppressed        atomic.Uint64
	authorized        atomic.Uint64
	rejected          atomic.Uint64
	dragBlocked       atomic.Uint64

	detectionOverflow atomic.Uint64
	gestureOverflow   atomic.Uint64
	actionOverflow    atomic.Uint64
}

// Stats is a point-in-time snapshot of the integrator's counters.
type Stats struct {
	Detections        uint64
	Interpreted       uint64
	InterpreterErrors uint64
	Invalid           uint64
	Stale             uint64
	Fused             uint64
	Debounced         uint64
	Sequences         uint64
	StatesPurged      uint64
	Suppressed        uint64
	Authorized        uint64
	Rejected          uint64
	DragBlocked       uint64

	DetectionOverflow uint64
	GestureOverflow   uint64
	ActionOverflow    uint64

	DetectionQueueDepth int
	GestureQueueDepth   int
	ActionQueueDepth    int

	Uptime time.Duration
}

// Overflows returns the total items dropped across all queues.
func (s Stats) Overflows() uint64 {
	return s.DetectionOverflow + s.GestureOverflow + s.ActionOverflow
}

func (s *stats) snapshot() Stats {
	return Stats{
		Detections:        s.detections.Load(),
		Interpreted:       s.interpreted.Load(),
		InterpreterErrors: s.interpreterErrors.Load(),
		Invalid:           s.invalid.Load(),
		Stale:             s.stale.Load(),
		Fused:             s.fused.Load(),
		Debounced:         s.debounced.Load(),
		Sequences:         s.sequences.Load(),
		StatesPurged:      s.statesPurged.Load(),
		Suppressed:        s.suppressed.Load(),
		Authorized:        s.authorized.Load(),
		Rejected:          s.rejected.Load(),
		DragBlocked:       s.dragBlocked.Load(),
		DetectionOverflow: s.detectionOverflow.Load(),
		GestureOverflow:   s.gestureOverflow.Load(),
		ActionOverflow:    s.actionOverflow.Load(),
	}
}
