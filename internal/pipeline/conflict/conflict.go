// Package conflict suppresses gestures that collide with recently
// accepted ones.
//
// The resolver keeps a short history of accepted gestures and rejects a
// candidate when it duplicates a recent entry, when a strictly
// higher-priority gesture was accepted moments before, or when a
// continuous motion from the other modality (hand vs arm) is still
// recent.
package conflict

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/nyxhci/nyx/internal/gesture"
	"github.com/nyxhci/nyx/internal/pipeline/track"
)

// Resolution windows.
const (
	// DuplicateWindow suppresses repeats of the same gesture key.
	DuplicateWindow = 200 * time.Millisecond
	// PreemptWindow lets a higher-priority gesture shadow lower ones.
	PreemptWindow = 500 * time.Millisecond
	// HistoryAge bounds how long an accepted gesture stays relevant.
	HistoryAge = time.Second
	// historySize caps the number of retained entries.
	historySize = 10
)

// Reason explains why a gesture was suppressed.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonDuplicate Reason = "duplicate"
	ReasonPreempted Reason = "preempted"
	ReasonExclusive Reason = "exclusive_motion"
)

// Decision is the outcome of a resolution check.
type Decision struct {
	Allowed bool
	Reason  Reason
	// Blocker is the key of the history entry that caused suppression.
	Blocker string
}

var allowed = Decision{Allowed: true}

type entry struct {
	key      string
	typ      gesture.Type
	name     string
	priority gesture.Priority
	at       time.Time
}

// Resolver checks gestures against its recent-acceptance history.
type Resolver struct {
	mu      sync.Mutex
	history [historySize]entry
	count   int
	next    int

	suppressed atomic.Uint64
}

// NewResolver returns a Resolver with empty history.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Suppressed returns the number of gestures rejected so far.
func (r *Resolver) Suppressed() uint64 {
	return r.suppressed.Load()
}

// Resolve checks g against recent history. An accepted gesture is
// recorded; a suppressed one is not.
func (r *Resolver) Resolve(g *gesture.Gesture) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := g.Key()
	for i := 0; i < r.count; i++ {
		e := &r.history[r.index(i)]
		age := g.Timestamp.Sub(e.at)
		if age < 0 || age > HistoryAge {
			continue
		}
		if e.key == key && age < DuplicateWindow {
			r.suppressed.Add(1)
			return Decision{Reason: ReasonDuplicate, Blocker: e.key}
		}
		if e.priority > g.Priority && age < PreemptWindow {
			r.suppressed.Add(1)
			return Decision{Reason: ReasonPreempted, Blocker: e.key}
		}
		if exclusiveMotion(e, g) && age < PreemptWindow {
			r.suppressed.Add(1)
			return Decision{Reason: ReasonExclusive, Blocker: e.key}
		}
	}

	r.record(g, key)
	return allowed
}

// exclusiveMotion reports whether the candidate collides with a recent
// continuous gesture from the other modality. While a continuous hand
// motion is active, arm gestures are held back entirely, and vice
// versa: the two modalities share one motion channel.
func exclusiveMotion(e *entry, g *gesture.Gesture) bool {
	if !track.IsContinuousName(e.name) {
		return false
	}
	return (e.typ == gesture.TypeHand && g.Type == gesture.TypeArm) ||
		(e.typ == gesture.TypeArm && g.Type == gesture.TypeHand)
}

func (r *Resolver) record(g *gesture.Gesture, key string) {
	r.history[r.next] = entry{
		key:      key,
		typ:      g.Type,
		name:     g.Name,
		priority: g.Priority,
		at:       g.Timestamp,
	}
	r.next = (r.next + 1) % historySize
	if r.count < historySize {
		r.count++
	}
}

// index maps a logical offset (0 = oldest retained) to a ring slot.
func (r *Resolver) index(i int) int {
	if r.count < historySize {
		return i
	}
	return (r.next + i) % historySize
}

// Reset clears the acceptance history.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count = 0
	r.next = 0
}
