package profile

import "sync"

// dragState is the per-stream latch position.
type dragState int

const (
	dragIdle dragState = iota
	dragActive
)

// Drag command names recognized by the latch.
const (
	DragStart = "drag_start"
	DragEnd   = "drag_end"
)

// DragLatch guards against duplicate button-down or button-up actions
// per output stream. A drag_start while already dragging is a no-op,
// as is a drag_end while idle.
type DragLatch struct {
	mu      sync.Mutex
	streams map[string]dragState
}

// NewDragLatch returns an empty latch.
func NewDragLatch() *DragLatch {
	return &DragLatch{streams: make(map[string]dragState)}
}

// Admit reports whether a command on the given stream should be
// dispatched. Commands other than drag_start/drag_end always pass.
func (l *DragLatch) Admit(stream, command string) bool {
	switch command {
	case DragStart, DragEnd:
	default:
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	state := l.streams[stream]
	if command == DragStart {
		if state == dragActive {
			return false
		}
		l.streams[stream] = dragActive
		return true
	}
	if state == dragIdle {
		return false
	}
	l.streams[stream] = dragIdle
	return true
}

// Dragging reports whether the stream currently holds an active drag.
func (l *DragLatch) Dragging(stream string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.streams[stream] == dragActive
}

// Reset releases all streams.
func (l *DragLatch) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.streams = make(map[string]dragState)
}
