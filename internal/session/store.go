package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Store keeps live sessions in memory.
type Store struct {
	provider Provider
	opts     Options
	idleTTL  time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore(provider Provider, opts Options, idleTTL time.Duration) *Store {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Store{
		provider: provider,
		opts:     opts,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: map[string]*Session{},
	}
}

func (st *Store) Create() *Session {
	s := New(uuid.NewString(), st.provider, st.opts)
	s.touch(st.now())
	st.mu.Lock()
	st.sessions[s.ID()] = s
	st.mu.Unlock()
	slog.Debug("session created", "session", s.ID())
	return s
}

// Get returns the session and marks it as recently used.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(st.now())
	return s, nil
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.Close()
	}
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Evict removes sessions idle for longer than the store's TTL and returns their
// ids. Sessions for which inUse reports true are touched instead; inUse may be nil.
func (st *Store) Evict(inUse func(id string) bool) []string {
	now := st.now()
	cutoff := now.Add(-st.idleTTL)
	var stale []*Session
	st.mu.Lock()
	for id, s := range st.sessions {
		if !s.idleSince().Before(cutoff) {
			continue
		}
		if inUse != nil && inUse(id) {
			s.touch(now)
			continue
		}
		stale = append(stale, s)
		delete(st.sessions, id)
	}
	st.mu.Unlock()

	ids := make([]string, 0, len(stale))
	for _, s := range stale {
		s.Close()
		ids = append(ids, s.ID())
	}
	if len(ids) > 0 {
		slog.Info("evicted idle sessions", "count", len(ids))
	}
	return ids
}
