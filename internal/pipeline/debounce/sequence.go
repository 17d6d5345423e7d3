package debounce

import (
	"strings"
	"time"

	"github.com/nyxhci/nyx/internal/gesture"
)

const (
	// sequenceSlots is the capacity of the sequence buffer.
	sequenceSlots = 5

	// doubleWindow is the maximum gap between the two taps of a double.
	doubleWindow = 500 * time.Millisecond

	// sequenceConfidence is assigned to every synthesized sequence gesture.
	sequenceConfidence = 0.8
)

type seqEntry struct {
	name string
	typ  gesture.Type
	time time.Time
}

// SequenceTracker keeps the last few dispatched gestures and recognizes two
// fixed temporal patterns:
//
//   - double: the last two entries share a name containing "tap" and are at
//     most 500ms apart, yielding "double_{name}".
//   - combo: the last two entries have distinct names, yielding "{A}_{B}".
//
// A recognized pattern synthesizes a sequence-typed gesture that re-enters
// the pipeline at the authorization stage; it is never re-fused or
// re-debounced.
type SequenceTracker struct {
	buf   [sequenceSlots]seqEntry
	next  int
	count int

	detected uint64
}

// NewSequenceTracker creates an empty tracker.
func NewSequenceTracker() *SequenceTracker {
	return &SequenceTracker{}
}

// Detected returns how many patterns the tracker has synthesized.
func (t *SequenceTracker) Detected() uint64 {
	return t.detected
}

// Observe appends the gesture to the buffer (FIFO-evicting the oldest slot)
// and returns a synthesized sequence gesture if a pattern completed, or nil.
func (t *SequenceTracker) Observe(g *gesture.Gesture) *gesture.Gesture {
	t.buf[t.next] = seqEntry{name: g.Name, typ: g.Type, time: g.Timestamp}
	t.next = (t.next + 1) % sequenceSlots
	if t.count < sequenceSlots {
		t.count++
	}

	if t.count < 2 {
		return nil
	}
	last := t.at(0)
	prev := t.at(1)

	if synth := t.matchDouble(prev, last); synth != nil {
		return synth
	}
	return t.matchCombo(prev, last)
}

// at returns the entry n positions back from the newest.
func (t *SequenceTracker) at(n int) *seqEntry {
	idx := (t.next - 1 - n + 2*sequenceSlots) % sequenceSlots
	return &t.buf[idx]
}

func (t *SequenceTracker) matchDouble(prev, last *seqEntry) *gesture.Gesture {
	if prev.name != last.name {
		return nil
	}
	if !strings.Contains(last.name, "tap") {
		return nil
	}
	if last.time.Sub(prev.time) > doubleWindow {
		return nil
	}
	return t.synthesize("double_"+last.name, "double", prev, last)
}

func (t *SequenceTracker) matchCombo(prev, last *seqEntry) *gesture.Gesture {
	if prev.name == last.name {
		return nil
	}
	return t.synthesize(prev.name+"_"+last.name, "combo", prev, last)
}

func (t *SequenceTracker) synthesize(name, pattern string, prev, last *seqEntry) *gesture.Gesture {
	t.detected++
	return &gesture.Gesture{
		Name:       name,
		Type:       gesture.TypeSequence,
		Confidence: sequenceConfidence,
		Timestamp:  last.time,
		Hand:       gesture.HandAny,
		Source:     "sequence",
		Sequence: &gesture.SequenceData{
			Pattern: pattern,
			Members: []string{prev.name, last.name},
		},
	}
}
