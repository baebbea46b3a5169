package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arnavshah/intervention-scheduler-api/pkg/models"
	"github.com/arnavshah/intervention-scheduler-api/pkg/scheduler"
)

// ErrNotFound is returned for unknown or expired sessions
var ErrNotFound = errors.New("session not found")

// Session is one task-editing session and the schedule it owns
type Session struct {
	ID      uuid.UUID
	Owner   string
	Created time.Time

	mu       sync.Mutex
	state    *scheduler.ScheduleState
	lastUsed time.Time
}

// Do runs fn with exclusive access to the session's schedule
func (s *Session) Do(fn func(state *scheduler.ScheduleState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// Store keeps editing sessions in memory
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// NewStore creates a store whose sessions expire after ttl without use
func NewStore(ttl time.Duration, logger zerolog.Logger) *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With().Str("component", "session_store").Logger(),
	}
}

// Create opens a session for the given window
func (st *Store) Create(owner string, window models.TaskWindow) *Session {
	now := st.now()
	s := &Session{
		ID:       uuid.New(),
		Owner:    owner,
		Created:  now,
		state:    scheduler.NewScheduleState(window),
		lastUsed: now,
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	st.logger.Debug().Str("session_id", s.ID.String()).Str("owner", owner).Msg("session created")
	return s
}

// Get returns a live session belonging to owner and marks it used
func (st *Store) Get(id uuid.UUID, owner string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok || s.Owner != owner {
		return nil, ErrNotFound
	}
	now := st.now()
	if st.expired(s, now) {
		delete(st.sessions, id)
		return nil, ErrNotFound
	}
	s.lastUsed = now
	return s, nil
}

// Discard drops a session, abandoning its schedule
func (st *Store) Discard(id uuid.UUID, owner string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok || s.Owner != owner {
		return false
	}
	delete(st.sessions, id)
	return true
}

// Len returns the number of sessions held, expired or not
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep removes expired sessions and returns how many were dropped
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	n := 0
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
			n++
		}
	}
	if n > 0 {
		st.logger.Info().Int("expired", n).Msg("swept idle sessions")
	}
	return n
}

// RunSweeper calls Sweep every interval until stop is closed
func (st *Store) RunSweeper(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			st.Sweep()
		case <-stop:
			return
		}
	}
}

func (st *Store) expired(s *Session, now time.Time) bool {
	// lastUsed is only written under st.mu
	return now.Sub(s.lastUsed) > st.ttl
}
