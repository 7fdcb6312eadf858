package study

import "sync"

// learnerLocks serializes read-modify-write cycles per learner
type learnerLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newLearnerLocks() *learnerLocks {
	return &learnerLocks{locks: make(map[int64]*sync.Mutex)}
}

// lock blocks until the learner is free and returns the unlock function
func (l *learnerLocks) lock(learnerID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[learnerID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[learnerID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
