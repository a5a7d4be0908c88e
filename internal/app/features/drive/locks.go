package drive

import "sync"

// ownerLocks serializes structural tree mutations per owner. A rename and a
// delete racing inside the same owner's tree could otherwise interleave
// their physical and metadata steps and leave the two views disagreeing.
// Different owners' trees are disjoint, so they never contend.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[string]*ownerLock)}
}

// Lock acquires the mutation lock for an owner and returns the unlock
// function. Entries are reference counted so the map does not grow with
// every owner that ever mutated.
func (l *ownerLocks) Lock(ownerID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[ownerID]
	if !ok {
		entry = &ownerLock{}
		l.locks[ownerID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, ownerID)
		}
		l.mu.Unlock()
	}
}
