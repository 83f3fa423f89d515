package session

import (
	"context"
	"sync"
)

type entry struct {
	sess   Session
	cancel context.CancelFunc
}

// Store keeps at most one session per owner. Every method is atomic with
// respect to the others; long transfers run outside the lock and come back
// through the compare-and-set methods keyed by session ID.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[int64]*entry)}
}

// Get returns a copy of the owner's session.
func (s *Store) Get(owner int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[owner]
	if !ok {
		return Session{}, false
	}
	return e.sess, true
}

// Put stores sess under its owner, replacing and returning any previous one.
func (s *Store) Put(sess Session) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, replaced := s.entries[sess.OwnerID]
	s.entries[sess.OwnerID] = &entry{sess: sess}
	if !replaced {
		return Session{}, false
	}
	return prev.sess, true
}

// Remove deletes the owner's session and cancels its transfer, if any.
func (s *Store) Remove(owner int64) (Session, bool) {
	s.mu.Lock()
	e, ok := s.entries[owner]
	delete(s.entries, owner)
	s.mu.Unlock()
	if !ok {
		return Session{}, false
	}
	if e.cancel != nil {
		e.cancel()
	}
	return e.sess, true
}

// CompareAndRemove deletes the owner's session only while it is still id.
func (s *Store) CompareAndRemove(owner int64, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[owner]
	if !ok || e.sess.ID != id {
		return false
	}
	delete(s.entries, owner)
	return true
}

// Begin moves session id from awaiting-name to processing and remembers
// cancel so Remove can abort the transfer.
func (s *Store) Begin(owner int64, id string, cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[owner]
	if !ok || e.sess.ID != id || e.sess.Stage != StageAwaitingName {
		return false
	}
	e.sess.Stage = StageProcessing
	e.cancel = cancel
	return true
}

// SetLocalPath records the staged file of session id. It reports false when
// the session was cancelled or replaced meanwhile.
func (s *Store) SetLocalPath(owner int64, id, path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[owner]
	if !ok || e.sess.ID != id {
		return false
	}
	e.sess.LocalPath = path
	return true
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
