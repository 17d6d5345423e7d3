// Package debounce suppresses near-duplicate gesture repeats and recognizes
// short temporal patterns across surviving gestures.
package debounce

import (
	"sync/atomic"
	"time"

	"github.com/nyxhci/nyx/internal/gesture"
)

// DefaultWindow is the default same-gesture suppression window.
const DefaultWindow = 300 * time.Millisecond

// historySize is how many recent passes the debouncer remembers.
const historySize = 10

type entry struct {
	key  string
	time time.Time
}

// Debouncer suppresses a gesture whose name+type repeats within the
// same-gesture window. It is owned by the single routing goroutine; the
// window and enable flag are atomic so they can be toggled at runtime.
type Debouncer struct {
	windowNs atomic.Int64
	enabled  atomic.Bool

	history [historySize]entry
	next    int
	count   int

	suppressed atomic.Uint64
}

// NewDebouncer creates an enabled debouncer with the default window.
func NewDebouncer() *Debouncer {
	d := &Debouncer{}
	d.windowNs.Store(int64(DefaultWindow))
	d.enabled.Store(true)
	return d
}

// SetEnabled toggles suppression. A disabled debouncer passes everything
// but still records history so re-enabling has context.
func (d *Debouncer) SetEnabled(on bool) {
	d.enabled.Store(on)
}

// Enabled reports whether suppression is active.
func (d *Debouncer) Enabled() bool {
	return d.enabled.Load()
}

// SetWindow adjusts the same-gesture window.
func (d *Debouncer) SetWindow(w time.Duration) {
	if w > 0 {
		d.windowNs.Store(int64(w))
	}
}

// Window returns the current same-gesture window.
func (d *Debouncer) Window() time.Duration {
	return time.Duration(d.windowNs.Load())
}

// Suppressed returns how many gestures have been dropped.
func (d *Debouncer) Suppressed() uint64 {
	return d.suppressed.Load()
}

// Allow reports whether the gesture may proceed. An allowed gesture is
// recorded; a suppressed one is not, so a burst keeps being measured from
// its first occurrence.
func (d *Debouncer) Allow(g *gesture.Gesture) bool {
	key := g.Key()
	if d.enabled.Load() {
		window := d.Window()
		for i := 0; i < d.count; i++ {
			e := &d.history[i]
			if e.key != key {
				continue
			}
			if g.Timestamp.Sub(e.time) < window {
				d.suppressed.Add(1)
				return false
			}
		}
	}
	d.record(key, g.Timestamp)
	return true
}

func (d *Debouncer) record(key string, t time.Time) {
	d.history[d.next] = entry{key: key, time: t}
	d.next = (d.next + 1) % historySize
	if d.count < historySize {
		d.count++
	}
}
