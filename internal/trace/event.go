package trace

import "time"

// Kind is the type of a trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	ScopeServer   Scope = iota + 1 // session, configuration sweeps
	ScopeDocument                  // one validation of one document
	ScopePhase                     // settings, lint, publish
	ScopeDetail                    // per-message work
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeServer:
		return "server"
	case ScopeDocument:
		return "document"
	case ScopePhase:
		return "phase"
	case ScopeDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for root spans
	GID      uint64 // goroutine that emitted the event
	Name     string // e.g. "validate", "lint", "config_sweep"
	Detail   string
	Extra    map[string]string
}
