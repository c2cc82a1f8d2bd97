package portfolio

import (
	"sync"
	"time"
)

// debouncer coalesces rapid triggers into a single callback invocation after
// a quiescence window. Each Trigger resets the deadline; when it expires the
// callback fires exactly once. The callback reads the latest state at fire
// time, so last-write-wins at the storage boundary.
type debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	timer   *time.Timer
	pending bool
	fn      func()
}

func newDebouncer(window time.Duration, fn func()) *debouncer {
	return &debouncer{window: window, fn: fn}
}

// Trigger schedules (or reschedules) the callback after the quiescence window.
func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		if !d.pending {
			d.mu.Unlock()
			return
		}
		d.pending = false
		d.mu.Unlock()
		d.fn()
	})
}

// Flush fires the callback immediately if a trigger is pending.
func (d *debouncer) Flush() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	d.fn()
}

// Stop cancels any pending trigger without firing.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
}
