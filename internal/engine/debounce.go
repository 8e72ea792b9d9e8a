package engine

import (
	"sync"
	"time"
)

// Debouncer runs fn once after signals stop arriving for the quiet window.
// There is a single timer: every Signal re-arms it.
type Debouncer struct {
	quiet time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	last    time.Time
	stopped bool
}

// NewDebouncer returns a debouncer calling fn after quiet.
func NewDebouncer(quiet time.Duration, fn func()) *Debouncer {
	return &Debouncer{quiet: quiet, fn: fn}
}

// Signal records a change and restarts the quiet window.
func (d *Debouncer) Signal() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.last = time.Now()
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() { d.fire(gen) })
}

// fire runs fn unless a newer signal or Stop arrived after the timer for
// gen was armed. Stop on an AfterFunc timer cannot recall a callback that
// has already started, so the generation check is what enforces this.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Pending reports whether a run is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// LastSignal returns the time of the most recent Signal.
func (d *Debouncer) LastSignal() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Stop cancels any scheduled run and ignores later signals.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
