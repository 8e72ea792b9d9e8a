package trace

import (
	"bytes"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// NextSeq returns the next event sequence number. Sequence numbers order
// events across goroutines even when timestamps collide.
func NextSeq() uint64 { return seqCounter.Add(1) }

// NextSpanID returns a process-unique span ID. Zero is never returned.
func NextSpanID() uint64 { return spanCounter.Add(1) }

func getGoroutineID() uint64 {
	var buf [64]byte
	head := buf[:runtime.Stack(buf[:], false)]
	head, ok := bytes.CutPrefix(head, []byte("goroutine "))
	if !ok {
		return 0
	}
	num, _, ok := bytes.Cut(head, []byte(" "))
	if !ok {
		return 0
	}
	gid, err := strconv.ParseUint(string(num), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

// Span is an open span. A span from a disabled tracer, or one whose scope
// is filtered out by the level, is inert. End emits at most once.
type Span struct {
	tracer  Tracer
	ev      Event
	started time.Time
	ended   atomic.Bool
}

func live(t Tracer, scope Scope) bool {
	return t != nil && t.Enabled() && t.Level().ShouldEmit(scope)
}

// Begin emits a span start. parent is 0 for a root span.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if !live(t, scope) {
		return &Span{tracer: Nop}
	}
	s := &Span{tracer: t, started: time.Now()}
	s.ev = Event{
		Scope:    scope,
		SpanID:   NextSpanID(),
		ParentID: parent,
		GID:      getGoroutineID(),
		Name:     name,
	}
	begin := s.ev
	begin.Time = s.started
	begin.Seq = NextSeq()
	begin.Kind = KindSpanBegin
	t.Emit(&begin)
	return s
}

// End emits the span end and returns how long the span was open.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() || s.ended.Swap(true) {
		return 0
	}
	end := s.ev
	end.Time = time.Now()
	end.Seq = NextSeq()
	end.Kind = KindSpanEnd
	end.Detail = detail
	s.tracer.Emit(&end)
	return end.Time.Sub(s.started)
}

// WithExtra attaches key=value to the end event. Not safe for concurrent use.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() {
		return s
	}
	if s.ev.Extra == nil {
		s.ev.Extra = make(map[string]string, 2)
	}
	s.ev.Extra[key] = value
	return s
}

// ID returns the span ID, 0 for an inert span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.ev.SpanID
}

// Point emits an instant event under parent.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	if !live(t, scope) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: parent,
		GID:      getGoroutineID(),
		Name:     name,
		Detail:   detail,
	})
}
