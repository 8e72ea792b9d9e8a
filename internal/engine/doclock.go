package engine

import "sync"

// docLocks hands out one mutex per document. Entries live only while some
// goroutine holds or waits on them.
type docLocks struct {
	mu    sync.Mutex
	locks map[string]*docLock
}

type docLock struct {
	mu   sync.Mutex
	refs int
}

func (d *docLocks) lock(uri string) (unlock func()) {
	d.mu.Lock()
	if d.locks == nil {
		d.locks = make(map[string]*docLock)
	}
	l := d.locks[uri]
	if l == nil {
		l = &docLock{}
		d.locks[uri] = l
	}
	l.refs++
	d.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		d.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(d.locks, uri)
		}
		d.mu.Unlock()
	}
}

func (d *docLocks) size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.locks)
}
