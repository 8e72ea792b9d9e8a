package trace

import (
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits periodic events so a stalled validation shows up in a
// trace as heartbeats with no span ends between them.
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	started  time.Time

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// StartHeartbeat starts emitting every interval. It returns nil when
// tracing is disabled; Stop on nil is a no-op.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer:   tracer,
		interval: interval,
		started:  time.Now(),
		done:     make(chan struct{}),
	}
	h.wg.Add(1)
	go h.loop()
	return h
}

func (h *Heartbeat) loop() {
	defer h.wg.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var beats uint64
	for {
		select {
		case now := <-ticker.C:
			beats++
			h.tracer.Emit(&Event{
				Time:   now,
				Seq:    NextSeq(),
				Kind:   KindHeartbeat,
				Scope:  ScopeServer,
				GID:    getGoroutineID(),
				Name:   "heartbeat",
				Detail: "#" + strconv.FormatUint(beats, 10) + " up " + now.Sub(h.started).Truncate(time.Second).String(),
			})
		case <-h.done:
			return
		}
	}
}

// Stop ends the heartbeat goroutine and waits for it. Safe to call twice.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.done) })
	h.wg.Wait()
}
