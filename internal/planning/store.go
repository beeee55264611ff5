package planning

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/walkplan/walkplan/internal/journey"
)

// DefaultSessionTTL is how long an untouched session is kept.
const DefaultSessionTTL = time.Hour

// StoreConfig holds configuration for the session store.
type StoreConfig struct {
	// Calendar is handed to every session (default: local time zone).
	Calendar journey.Calendar

	// NewSearcher creates the location searcher owned by a new session.
	NewSearcher func() PlaceSearcher

	// TTL is the idle time after which a session is dropped (default: 1 hour).
	TTL time.Duration
}

// Store keeps planning sessions in memory and drops idle ones.
type Store struct {
	cal         journey.Calendar
	newSearcher func() PlaceSearcher
	ttl         time.Duration

	mu          sync.Mutex
	sessions    map[string]*Session
	lastCleanup time.Time
}

// NewStore creates an empty session store.
func NewStore(cfg StoreConfig) *Store {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultSessionTTL
	}
	return &Store{
		cal:         cfg.Calendar,
		newSearcher: cfg.NewSearcher,
		ttl:         cfg.TTL,
		sessions:    make(map[string]*Session),
	}
}

// Create starts a new session.
func (st *Store) Create() *Session {
	st.cleanupIfNeeded()

	var searcher PlaceSearcher
	if st.newSearcher != nil {
		searcher = st.newSearcher()
	}
	s := NewSession(uuid.NewString(), st.cal, searcher)

	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()
	return s
}

// Get returns a live session and marks it used.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()

	if !ok || st.expired(s) {
		st.Delete(id)
		return nil, ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

// Delete closes and removes a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Len returns the number of stored sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Cleanup drops idle sessions and returns how many were dropped.
func (st *Store) Cleanup() int {
	st.mu.Lock()
	var idle []*Session
	for id, s := range st.sessions {
		if st.expired(s) {
			idle = append(idle, s)
			delete(st.sessions, id)
		}
	}
	st.lastCleanup = st.cal.Now()
	st.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	return len(idle)
}

func (st *Store) expired(s *Session) bool {
	return st.cal.Now().Sub(s.idleSince()) > st.ttl
}

func (st *Store) cleanupIfNeeded() {
	st.mu.Lock()
	due := st.cal.Now().Sub(st.lastCleanup) > st.ttl/4
	st.mu.Unlock()

	if due {
		st.Cleanup()
	}
}
