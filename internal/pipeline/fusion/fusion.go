// Package fusion merges simultaneous compatible gestures from different
// modalities into a single combined gesture.
//
// Pairing is a greedy scan in batch order: the first compatible,
// temporally-close, not-yet-consumed pair is fused and each gesture
// participates in at most one fusion per batch. With three or more
// simultaneously compatible gestures only the first eligible pair fuses and
// the rest pass through individually. This is a known limitation, kept
// deliberately: no globally optimal pairing is defined for that case.
package fusion

import (
	"sync/atomic"
	"time"

	"github.com/nyxhci/nyx/internal/gesture"
)

// Window bounds for SetWindow.
const (
	// DefaultWindow is the default fusion window.
	DefaultWindow = 300 * time.Millisecond
	// MinWindow is the smallest accepted fusion window.
	MinWindow = 100 * time.Millisecond
	// MaxWindow is the largest accepted fusion window.
	MaxWindow = 1000 * time.Millisecond
)

// Engine fuses compatible gesture pairs within a time window.
// It is owned by the single routing goroutine and needs no locking; the
// window is atomic so it can be adjusted while the pipeline runs.
type Engine struct {
	windowNs atomic.Int64

	fused atomic.Uint64
}

// NewEngine creates a fusion engine with the default window.
func NewEngine() *Engine {
	e := &Engine{}
	e.windowNs.Store(int64(DefaultWindow))
	return e
}

// SetWindow adjusts the fusion window, clamped to [MinWindow, MaxWindow].
func (e *Engine) SetWindow(w time.Duration) {
	if w < MinWindow {
		w = MinWindow
	}
	if w > MaxWindow {
		w = MaxWindow
	}
	e.windowNs.Store(int64(w))
}

// Window returns the current fusion window.
func (e *Engine) Window() time.Duration {
	return time.Duration(e.windowNs.Load())
}

// Fused returns how many combined gestures the engine has produced.
func (e *Engine) Fused() uint64 {
	return e.fused.Load()
}

// Fuse scans the batch for compatible pairs and returns a new batch in which
// each fused pair is replaced by one combined gesture. Unfused gestures pass
// through unchanged, preserving their relative order at the position of the
// pair's first member.
func (e *Engine) Fuse(batch []gesture.Gesture) []gesture.Gesture {
	if len(batch) < 2 {
		return batch
	}

	window := e.Window()
	consumed := make([]bool, len(batch))
	out := make([]gesture.Gesture, 0, len(batch))

	for i := range batch {
		if consumed[i] {
			continue
		}
		paired := false
		for j := i + 1; j < len(batch); j++ {
			if consumed[j] {
				continue
			}
			if !compatible(&batch[i], &batch[j]) {
				continue
			}
			if !within(batch[i].Timestamp, batch[j].Timestamp, window) {
				continue
			}
			out = append(out, combine(batch[i], batch[j]))
			consumed[i], consumed[j] = true, true
			e.fused.Add(1)
			paired = true
			break
		}
		if !paired {
			out = append(out, batch[i])
		}
	}
	return out
}

// Combine fuses two gestures unconditionally, skipping the compatibility and
// window checks. Callers that already know the pair belongs together use
// this for direct injection.
func Combine(a, b gesture.Gesture) gesture.Gesture {
	return combine(a, b)
}

// compatible reports whether two gestures belong to the fixed compatibility
// set: hand+arm, hand+pose, or left hand + right hand. Order-insensitive.
func compatible(a, b *gesture.Gesture) bool {
	if a.Type == gesture.TypeHand && b.Type == gesture.TypeHand {
		return (a.Hand == gesture.HandLeft && b.Hand == gesture.HandRight) ||
			(a.Hand == gesture.HandRight && b.Hand == gesture.HandLeft)
	}
	return crossType(a.Type, b.Type, gesture.TypeHand, gesture.TypeArm) ||
		crossType(a.Type, b.Type, gesture.TypeHand, gesture.TypePose)
}

func crossType(a, b, x, y gesture.Type) bool {
	return (a == x && b == y) || (a == y && b == x)
}

func within(a, b time.Time, window time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d < window
}

// combine builds the fused gesture: label is the deterministic concatenation
// of the two source labels in scan order, confidence is the average,
// timestamp the later of the two.
func combine(a, b gesture.Gesture) gesture.Gesture {
	ts := a.Timestamp
	if b.Timestamp.After(ts) {
		ts = b.Timestamp
	}
	return gesture.Gesture{
		Name:       a.Name + "+" + b.Name,
		Type:       gesture.TypeCombined,
		Confidence: (a.Confidence + b.Confidence) / 2,
		Timestamp:  ts,
		Hand:       gesture.HandAny,
		Source:     a.Source,
		Fused: &gesture.FusedData{
			Sources: [2]string{a.Source, b.Source},
			Types:   [2]gesture.Type{a.Type, b.Type},
			Parts:   [2]gesture.Gesture{a.Clone(), b.Clone()},
		},
	}
}
