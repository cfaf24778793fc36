// Package session holds the signed-in user for the CLI and persists it across runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// StorageKey is the backend key the session is persisted under
const StorageKey = "user"

// ErrNoSession is returned by UpdateUser when nobody is signed in
var ErrNoSession = errors.New("no active session")

// Session is the signed-in user as returned by the API, plus the bearer token
type Session struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Phone          string  `json:"phone"`
	IsAdmin        bool    `json:"isAdmin"`
	EnrollmentYear int     `json:"enrollmentYear,omitempty"`
	ClassNumber    int     `json:"classNumber,omitempty"`
	TotalHours     float64 `json:"totalHours,omitempty"`
	Token          string  `json:"token,omitempty"`
}

// Update is a partial session; nil fields are left unchanged
type Update struct {
	ID             *string
	Name           *string
	Phone          *string
	IsAdmin        *bool
	EnrollmentYear *int
	ClassNumber    *int
	TotalHours     *float64
	Token          *string
}

func (u Update) apply(s *Session) {
	if u.ID != nil {
		s.ID = *u.ID
	}
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Phone != nil {
		s.Phone = *u.Phone
	}
	if u.IsAdmin != nil {
		s.IsAdmin = *u.IsAdmin
	}
	if u.EnrollmentYear != nil {
		s.EnrollmentYear = *u.EnrollmentYear
	}
	if u.ClassNumber != nil {
		s.ClassNumber = *u.ClassNumber
	}
	if u.TotalHours != nil {
		s.TotalHours = *u.TotalHours
	}
	if u.Token != nil {
		s.Token = *u.Token
	}
}

// Listener observes session changes. ok is false after logout.
type Listener func(s Session, ok bool)

type subscription struct {
	id int
	fn Listener
}

// Store owns the current session. Mutations are serialized and persisted
// before listeners are notified. Listeners must not mutate the store.
type Store struct {
	writeMu sync.Mutex // serializes mutations and their notifications

	mu        sync.RWMutex
	backend   Backend
	logger    zerolog.Logger
	current   *Session
	listeners []subscription
	nextID    int
}

// Open loads the persisted session from backend. Missing, null, unreadable or
// malformed data starts the store signed out, as does a session with no id,
// phone or token.
func Open(backend Backend, logger zerolog.Logger) *Store {
	s := &Store{
		backend: backend,
		logger:  logger.With().Str("component", "session").Logger(),
	}

	raw, err := backend.Get(StorageKey)
	switch {
	case errors.Is(err, ErrNotFound):
		return s
	case err != nil:
		s.logger.Warn().Err(err).Msg("Failed to read stored session, starting signed out")
		return s
	}

	var stored *Session
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Warn().Err(err).Msg("Stored session is malformed, starting signed out")
		return s
	}
	if stored == nil {
		return s
	}
	if stored.ID == "" && stored.Phone == "" && stored.Token == "" {
		s.logger.Warn().Msg("Stored session has no identity, starting signed out")
		return s
	}
	s.current = stored
	return s
}

// Current returns a copy of the session and whether one exists
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// IsAuthenticated reports whether a session exists
func (s *Store) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

// IsAdmin reports whether the current session belongs to an admin
func (s *Store) IsAdmin() bool {
	current, ok := s.Current()
	return ok && current.IsAdmin
}

// Login replaces the session with sess and persists it
func (s *Store) Login(sess Session) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.persist(sess); err != nil {
		return err
	}
	s.set(&sess)

	s.logger.Debug().Str("user_id", sess.ID).Bool("is_admin", sess.IsAdmin).Msg("Signed in")
	s.notify()
	return nil
}

// Logout clears the session and removes it from storage
func (s *Store) Logout() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.backend.Delete(StorageKey); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to clear stored session: %w", err)
	}
	s.set(nil)

	s.logger.Debug().Msg("Signed out")
	s.notify()
	return nil
}

// UpdateUser merges u into the current session and persists the result
func (s *Store) UpdateUser(u Update) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, ok := s.Current()
	if !ok {
		return ErrNoSession
	}
	u.apply(&current)

	if err := s.persist(current); err != nil {
		return err
	}
	s.set(&current)

	s.notify()
	return nil
}

// Subscribe registers fn to run after every change, in registration order.
// The returned func removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) persist(sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.backend.Set(StorageKey, string(data)); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *Store) set(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = sess
}

func (s *Store) notify() {
	s.mu.RLock()
	listeners := make([]subscription, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	current, ok := s.Current()
	for _, sub := range listeners {
		sub.fn(current, ok)
	}
}
