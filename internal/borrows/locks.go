package borrows

import "sync"

// bookLocks serializes circulation writes per book so a
// check-then-insert cannot interleave for the same title.
type bookLocks struct {
	mu    sync.Mutex
	locks map[uint]*bookLock
}

type bookLock struct {
	mu   sync.Mutex
	refs int
}

func newBookLocks() *bookLocks {
	return &bookLocks{locks: map[uint]*bookLock{}}
}

// Acquire blocks until the lock for the book is held and returns the
// release func. Entries are dropped once the last holder releases.
func (b *bookLocks) Acquire(bookID uint) func() {
	b.mu.Lock()
	lock, ok := b.locks[bookID]
	if !ok {
		lock = &bookLock{}
		b.locks[bookID] = lock
	}
	lock.refs++
	b.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		b.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(b.locks, bookID)
		}
		b.mu.Unlock()
	}
}
