package cart

import "sync"

// UserLocks serializes mutations per user: one logical cart operation (or
// an entire checkout sequence) holds the user's slot for its full duration,
// including failure exits. Entries are refcounted so the table does not
// grow with every user ever seen.
type UserLocks struct {
	mu    sync.Mutex
	slots map[string]*userSlot
}

type userSlot struct {
	mu   sync.Mutex
	refs int
}

func NewUserLocks() *UserLocks {
	return &UserLocks{slots: make(map[string]*userSlot)}
}

// Acquire blocks until the user's slot is free and returns its release func.
func (l *UserLocks) Acquire(userID string) func() {
	l.mu.Lock()
	s, ok := l.slots[userID]
	if !ok {
		s = &userSlot{}
		l.slots[userID] = s
	}
	s.refs++
	l.mu.Unlock()

	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		l.mu.Lock()
		s.refs--
		if s.refs == 0 {
			delete(l.slots, userID)
		}
		l.mu.Unlock()
	}
}
