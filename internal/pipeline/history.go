package pipeline

import (
	"sync"

	"github.com/nyxhci/nyx/internal/gesture"
)

// history keeps the most recent processed gestures and dispatched
// actions. Writes come only from the processing goroutine; the mutex
// exists for concurrent snapshot readers.
type history struct {
	mu       sync.RWMutex
	size     int
	gestures []gesture.Gesture
	actions  []gesture.Action
}

func newHistory(size int) *history {
	return &history{size: size}
}

func (h *history) addGesture(g gesture.Gesture) {
	h.mu.Lock()
	h.gestures = append(h.gestures, g)
	if len(h.gestures) > h.size {
		h.gestures = h.gestures[len(h.gestures)-h.size:]
	}
	h.mu.Unlock()
}

func (h *history) addAction(a gesture.Action) {
	h.mu.Lock()
	h.actions = append(h.actions, a)
	if len(h.actions) > h.size {
		h.actions = h.actions[len(h.actions)-h.size:]
	}
	h.mu.Unlock()
}

// recentGestures returns up to n most recent gestures, newest last.
func (h *history) recentGestures(n int) []gesture.Gesture {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n <= 0 || n > len(h.gestures) {
		n = len(h.gestures)
	}
	out := make([]gesture.Gesture, n)
	copy(out, h.gestures[len(h.gestures)-n:])
	return out
}

// recentActions returns up to n most recent actions, newest last.
func (h *history) recentActions(n int) []gesture.Action {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n <= 0 || n > len(h.actions) {
		n = len(h.actions)
	}
	out := make([]gesture.Action, n)
	copy(out, h.actions[len(h.actions)-n:])
	return out
}
