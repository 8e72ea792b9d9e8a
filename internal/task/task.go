// Package task sequences lint runs per document so the newest run wins.
//
// Every validation begins a task. Beginning a task supersedes any task still
// pending for the same document; when a superseded task later completes, the
// caller learns so from Complete and must discard its result.
package task

import (
	"sync"
	"sync/atomic"
	"time"
)

// Outcome is the state of a task.
type Outcome uint8

const (
	Pending Outcome = iota
	Completed
	Errored
	Superseded
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Completed:
		return "completed"
	case Errored:
		return "errored"
	case Superseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Terminal reports whether o is a final state.
func (o Outcome) Terminal() bool {
	return o != Pending
}

// Task describes one lint run.
type Task struct {
	ID        uint64
	URI       string
	StartedAt time.Time
	Outcome   Outcome
}

// Sequencer issues task ids and tracks the newest task per document. It is
// safe for concurrent use.
type Sequencer struct {
	next atomic.Uint64

	mu     sync.Mutex
	tasks  map[uint64]*Task
	latest map[string]uint64
}

// NewSequencer returns an empty sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{
		tasks:  make(map[uint64]*Task),
		latest: make(map[string]uint64),
	}
}

// Begin starts a task for uri and supersedes the previous pending one.
func (s *Sequencer) Begin(uri string) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	// allocated under the lock so id order matches supersession order
	t := &Task{
		ID:        s.next.Add(1),
		URI:       uri,
		StartedAt: time.Now(),
		Outcome:   Pending,
	}
	if prev, ok := s.latest[uri]; ok {
		if pt := s.tasks[prev]; pt != nil {
			if pt.Outcome == Pending {
				pt.Outcome = Superseded
			} else {
				delete(s.tasks, prev)
			}
		}
	}
	s.tasks[t.ID] = t
	s.latest[uri] = t.ID
	return *t
}

// Complete records the terminal outcome of task id and returns the effective
// outcome. A task that was superseded stays superseded and the caller must not
// publish its result. Completing an unknown or already finished task changes
// nothing; unknown ids report Superseded.
func (s *Sequencer) Complete(id uint64, outcome Outcome) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return Superseded
	}
	if t.Outcome == Pending && outcome.Terminal() {
		t.Outcome = outcome
	}
	effective := t.Outcome
	// finished tasks other than the latest are no longer needed
	if effective.Terminal() && s.latest[t.URI] != id {
		delete(s.tasks, id)
	}
	return effective
}

// Current returns the newest task id begun for uri.
func (s *Sequencer) Current(uri string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.latest[uri]
	return id, ok
}

// Lookup returns a copy of the task with the given id.
func (s *Sequencer) Lookup(id uint64) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Forget drops bookkeeping for uri; a task still pending for it becomes
// superseded.
func (s *Sequencer) Forget(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.latest[uri]
	if !ok {
		return
	}
	delete(s.latest, uri)
	if t := s.tasks[id]; t != nil {
		if t.Outcome == Pending {
			t.Outcome = Superseded
			// keep the entry so Complete can report supersession
			return
		}
		delete(s.tasks, id)
	}
}

// Retire drops task id and, if it is still the newest task for its
// document, the document's entry too. A newer task is left untouched.
func (s *Sequencer) Retire(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return
	}
	delete(s.tasks, id)
	if s.latest[t.URI] == id {
		delete(s.latest, t.URI)
	}
}

// Pending reports how many tasks have not reached a terminal state.
func (s *Sequencer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if t.Outcome == Pending {
			n++
		}
	}
	return n
}
