// Package sessions keeps live game states between requests.
package sessions

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"treasurehunt/backend/game"
	"treasurehunt/backend/metrics"
)

// Session is one logged-in player's game. Access the state only through Do.
type Session struct {
	ID       string
	Username string

	mu       sync.Mutex
	state    *game.State
	lastSeen time.Time

	storageMu sync.Mutex
	storage   string
}

// Do runs fn with the session locked, so a player's concurrent requests
// apply one at a time.
func (s *Session) Do(fn func(st *game.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// Storage is the name of the backend that last served this session. It is
// guarded separately so it can be read and set from inside Do.
func (s *Session) Storage() string {
	s.storageMu.Lock()
	defer s.storageMu.Unlock()
	return s.storage
}

func (s *Session) SetStorage(name string) {
	s.storageMu.Lock()
	defer s.storageMu.Unlock()
	s.storage = name
}

type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	metrics  *metrics.Metrics
}

// NewRegistry expires sessions idle for longer than ttl. A zero ttl keeps
// them until Delete.
func NewRegistry(ttl time.Duration, m *metrics.Metrics) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		metrics:  m,
	}
}

func (r *Registry) sweepLocked(now time.Time) {
	if r.ttl <= 0 {
		return
	}
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.ttl {
			delete(r.sessions, id)
		}
	}
}

func (r *Registry) Create(username string, st *game.State, storage string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)
	s := &Session{
		ID:       uuid.NewString(),
		Username: username,
		state:    st,
		storage:  storage,
		lastSeen: now,
	}
	r.sessions[s.ID] = s
	r.metrics.SetSessions(len(r.sessions))
	return s
}

// Get returns the live session and marks it as used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)
	r.metrics.SetSessions(len(r.sessions))
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = now
	return s, true
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	r.metrics.SetSessions(len(r.sessions))
}

// DeleteUser drops every session of username. Used on a fresh login and
// when an account is disabled or removed.
func (r *Registry) DeleteUser(username string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if strings.EqualFold(s.Username, username) {
			delete(r.sessions, id)
			n++
		}
	}
	r.metrics.SetSessions(len(r.sessions))
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
