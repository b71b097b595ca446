package engine

import (
	"sort"
	"sync"
)

// PeriodLocker hands out one exclusive lock per period id.
//
// Entries are reference-counted and dropped once the last holder or waiter
// releases them, so the map only holds periods currently in use. Different
// periods never share a lock.
type PeriodLocker struct {
	mu    sync.Mutex
	locks map[string]*periodLock
}

type periodLock struct {
	mu   sync.Mutex
	refs int
}

// NewPeriodLocker creates an empty locker.
func NewPeriodLocker() *PeriodLocker {
	return &PeriodLocker{locks: make(map[string]*periodLock)}
}

// Lock blocks until id's lock is held and returns its release function.
func (l *PeriodLocker) Lock(id string) (unlock func()) {
	l.mu.Lock()
	pl, ok := l.locks[id]
	if !ok {
		pl = &periodLock{}
		l.locks[id] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			pl.mu.Unlock()
			l.mu.Lock()
			pl.refs--
			if pl.refs == 0 {
				delete(l.locks, id)
			}
			l.mu.Unlock()
		})
	}
}

// LockAll acquires the locks for ids in ascending order, skipping
// duplicates, and returns a function releasing them in reverse.
func (l *PeriodLocker) LockAll(ids []string) (unlock func()) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	unlocks := make([]func(), 0, len(sorted))
	for i, id := range sorted {
		if i > 0 && id == sorted[i-1] {
			continue
		}
		unlocks = append(unlocks, l.Lock(id))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

// held returns the number of ids with a live entry. Used for testing.
func (l *PeriodLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
