package service

import "sync"

// scheduleLocks hands out one mutex per schedule id. Entries are dropped
// when nobody holds or waits on them.
type scheduleLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newScheduleLocks() *scheduleLocks {
	return &scheduleLocks{locks: make(map[string]*lockEntry)}
}

func (l *scheduleLocks) lock(scheduleID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[scheduleID]
	if !ok {
		entry = &lockEntry{}
		l.locks[scheduleID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, scheduleID)
		}
		l.mu.Unlock()
	}
}
