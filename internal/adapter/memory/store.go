package memory

import (
	"sync"

	"github.com/cwygoda/playlistbot/internal/domain"
)

// Store implements domain.SessionStore in process memory. Each user key has
// its own lock so updates for different users never contend.
type Store struct {
	mu   sync.Mutex
	keys map[int64]*entry
}

type entry struct {
	mu      sync.Mutex
	session domain.Session
	exists  bool
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{keys: make(map[int64]*entry)}
}

func (s *Store) entry(userID int64) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.keys[userID]
	if !ok {
		e = &entry{}
		s.keys[userID] = e
	}
	return e
}

// Get returns a copy of the user's session.
func (s *Store) Get(userID int64) (domain.Session, bool) {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session, e.exists
}

// Set replaces the user's session.
func (s *Store) Set(userID int64, sess domain.Session) {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = sess
	e.exists = true
}

// Delete forgets the user's session.
func (s *Store) Delete(userID int64) {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = domain.Session{}
	e.exists = false
}

// Update applies fn under the user's lock and stores the result if fn
// succeeds.
func (s *Store) Update(userID int64, fn func(sess *domain.Session, exists bool) error) error {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	sess := e.session
	if err := fn(&sess, e.exists); err != nil {
		return err
	}
	e.session = sess
	e.exists = true
	return nil
}

// Len returns the number of users with a session.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.keys {
		e.mu.Lock()
		if e.exists {
			n++
		}
		e.mu.Unlock()
	}
	return n
}
