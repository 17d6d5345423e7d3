// Package track follows gestures that represent an ongoing motion (swipe,
// pan, zoom, rotate, drag, scroll) across successive routing cycles,
// accumulating motion deltas and annotating each occurrence with its
// running state.
package track

import (
	"strings"
	"time"

	"github.com/nyxhci/nyx/internal/gesture"
)

// IdleTimeout is how long a continuous state survives without updates.
const IdleTimeout = time.Second

// continuousFamilies are the name fragments that mark a continuous gesture.
var continuousFamilies = []string{"swipe", "pan", "zoom", "rotate", "drag", "scroll"}

// IsContinuousName reports whether the gesture name belongs to the
// continuous family.
func IsContinuousName(name string) bool {
	for _, f := range continuousFamilies {
		if strings.Contains(name, f) {
			return true
		}
	}
	return false
}

// State is the tracked state of one active continuous gesture.
type State struct {
	// Start is when the gesture was first seen.
	Start time.Time

	// LastUpdate is when the gesture was last seen.
	LastUpdate time.Time

	// Updates is the number of occurrences after the first.
	Updates int

	// TotalX and TotalY are the accumulated motion deltas.
	TotalX float64
	TotalY float64
}

// Tracker owns the continuous-state map. It is used only by the single
// routing goroutine and needs no locking.
type Tracker struct {
	states map[string]*State
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[string]*State)}
}

// Active returns the number of currently tracked gestures.
func (t *Tracker) Active() int {
	return len(t.states)
}

// Lookup returns the state for a gesture key, or nil.
func (t *Tracker) Lookup(key string) *State {
	return t.states[key]
}

// Observe updates tracking for the gesture if it belongs to the continuous
// family, annotating it in place with the running totals. Non-continuous
// gestures are left untouched. Sequence gestures are never tracked: a
// combo name may contain a motion word without being a motion.
func (t *Tracker) Observe(g *gesture.Gesture) {
	if g.Type == gesture.TypeSequence || !IsContinuousName(g.Name) {
		return
	}

	key := g.Key()
	st, ok := t.states[key]
	if !ok {
		st = &State{Start: g.Timestamp}
		t.states[key] = st
	} else {
		st.Updates++
	}
	st.LastUpdate = g.Timestamp
	if g.Deltas != nil {
		st.TotalX += g.Deltas.X
		st.TotalY += g.Deltas.Y
	}

	g.Continuous = &gesture.ContinuousInfo{
		Duration: g.Timestamp.Sub(st.Start),
		Updates:  st.Updates,
		TotalX:   st.TotalX,
		TotalY:   st.TotalY,
	}
}

// Purge drops states idle for longer than IdleTimeout. Called once per
// routing cycle.
func (t *Tracker) Purge(now time.Time) int {
	purged := 0
	for key, st := range t.states {
		if now.Sub(st.LastUpdate) > IdleTimeout {
			delete(t.states, key)
			purged++
		}
	}
	return purged
}
