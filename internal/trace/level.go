package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff Level = iota
	LevelError
	LevelServer
	LevelDocument
	LevelPhase
	LevelDebug
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelServer:
		return "server"
	case LevelDocument:
		return "document"
	case LevelPhase:
		return "phase"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "off":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "server":
		return LevelServer, nil
	case "document":
		return LevelDocument, nil
	case "phase":
		return LevelPhase, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|server|document|phase|debug)", s)
	}
}

// ShouldEmit reports whether events of scope are kept at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelServer:
		return scope <= ScopeServer
	case LevelDocument:
		return scope <= ScopeDocument
	case LevelPhase:
		return scope <= ScopePhase
	case LevelDebug:
		return true
	}
	return false
}
