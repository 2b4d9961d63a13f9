package tagger

import (
	"path/filepath"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// pathLocks hands out one RWMutex per file. Writers take the exclusive side,
// readers the shared side. Entries are dropped once nobody holds them.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	sync.RWMutex
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*pathLock)}
}

// lockKey normalises path so that the same file reached through a decomposed
// (NFD) or composed (NFC) name maps to one lock.
func lockKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return norm.NFC.String(filepath.Clean(path))
}

func (l *pathLocks) acquire(path string) (string, *pathLock) {
	key := lockKey(path)
	l.mu.Lock()
	defer l.mu.Unlock()
	pl, ok := l.locks[key]
	if !ok {
		pl = &pathLock{}
		l.locks[key] = pl
	}
	pl.refs++
	return key, pl
}

func (l *pathLocks) release(key string, pl *pathLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pl.refs--
	if pl.refs == 0 {
		delete(l.locks, key)
	}
}

// Lock takes the exclusive lock for path and returns its release func.
func (l *pathLocks) Lock(path string) func() {
	key, pl := l.acquire(path)
	pl.Lock()
	return func() {
		pl.Unlock()
		l.release(key, pl)
	}
}

// RLock takes the shared lock for path and returns its release func.
func (l *pathLocks) RLock(path string) func() {
	key, pl := l.acquire(path)
	pl.RLock()
	return func() {
		pl.RUnlock()
		l.release(key, pl)
	}
}

func (l *pathLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
