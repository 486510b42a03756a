// Package manager keeps the per-client browsing sessions and the cached
// snapshot of the cafe source they filter over.
package manager

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/soshbru/soshbru/pkg/cafe"
	"github.com/soshbru/soshbru/pkg/common/errors"
	"github.com/soshbru/soshbru/pkg/filter"
)

const DefaultMaxSessions = 1024

// ErrStale is returned when committing the result of a request that a newer
// request on the same session has superseded.
var ErrStale = fmt.Errorf("%w: superseded by a newer request", errors.ErrConflict)

// Session is one client's browsing state.
type Session struct {
	ID          string           `json:"id"`
	Selection   filter.Selection `json:"filters"`
	Query       string           `json:"query"`
	Mode        filter.Mode      `json:"mode"`
	RemoteQuery string           `json:"remoteQuery,omitempty"`
	Remote      []cafe.Cafe      `json:"remote,omitempty"`
	Generation  uint64           `json:"generation"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func (s *Session) clone() Session {
	out := *s
	out.Remote = cafe.CloneAll(s.Remote)
	return out
}

// Ticket identifies one in-flight request on a session.
type Ticket struct {
	SessionID  string
	Generation uint64
}

// SessionManager holds sessions in an LRU; the least recently used session
// is dropped once the cap is reached.
type SessionManager struct {
	sessions *lru.Cache[string, *Session]
	mu       sync.Mutex
	logger   *zap.Logger
	now      func() time.Time
}

// Option customizes a SessionManager.
type Option func(*SessionManager)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *SessionManager) { m.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *SessionManager) { m.now = now }
}

// NewSessionManager creates a manager holding at most maxSessions sessions.
func NewSessionManager(maxSessions int, opts ...Option) (*SessionManager, error) {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	m := &SessionManager{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(m)
	}

	cache, err := lru.NewWithEvict[string, *Session](maxSessions, func(id string, _ *Session) {
		m.logger.Debug("session evicted", zap.String("session", id))
	})
	if err != nil {
		return nil, fmt.Errorf("creating session cache: %w", err)
	}
	m.sessions = cache
	return m, nil
}

// Create starts a session with the given initial filters. Invalid ids are
// dropped and an empty list means All.
func (m *SessionManager) Create(filters []string, mode filter.Mode) Session {
	mode, ok := filter.ParseMode(string(mode))
	if !ok {
		mode = filter.MatchAny
	}
	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		Selection: filter.Initialize(filters),
		Mode:      mode,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions.Add(s.ID, s)
	return s.clone()
}

// Get returns a copy of the session.
func (m *SessionManager) Get(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions.Get(id)
	if !ok {
		return Session{}, fmt.Errorf("session %s: %w", id, errors.ErrNotFound)
	}
	return s.clone(), nil
}

// Update applies fn to the session under the manager lock. If fn fails the
// session is left as it was.
func (m *SessionManager) Update(id string, fn func(*Session) error) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions.Get(id)
	if !ok {
		return Session{}, fmt.Errorf("session %s: %w", id, errors.ErrNotFound)
	}
	next := s.clone()
	if err := fn(&next); err != nil {
		return Session{}, err
	}
	next.ID = s.ID
	next.Generation = s.Generation
	next.UpdatedAt = m.now()
	*s = next
	return s.clone(), nil
}

// Begin registers a new request on the session. Any request begun earlier
// becomes stale.
func (m *SessionManager) Begin(id string) (Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions.Get(id)
	if !ok {
		return Ticket{}, fmt.Errorf("session %s: %w", id, errors.ErrNotFound)
	}
	s.Generation++
	return Ticket{SessionID: id, Generation: s.Generation}, nil
}

// Current reports whether t is still the latest request on its session.
func (m *SessionManager) Current(t Ticket) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions.Peek(t.SessionID)
	return ok && s.Generation == t.Generation
}

// Commit applies fn only if t is still the latest request; otherwise it
// returns ErrStale and the session is untouched.
func (m *SessionManager) Commit(t Ticket, fn func(*Session)) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions.Get(t.SessionID)
	if !ok {
		return Session{}, fmt.Errorf("session %s: %w", t.SessionID, errors.ErrNotFound)
	}
	if s.Generation != t.Generation {
		m.logger.Debug("discarding stale response",
			zap.String("session", t.SessionID),
			zap.Uint64("generation", t.Generation),
			zap.Uint64("current", s.Generation))
		return Session{}, ErrStale
	}
	fn(s)
	s.UpdatedAt = m.now()
	return s.clone(), nil
}

// Delete drops the session. Deleting an unknown session is not an error.
func (m *SessionManager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions.Remove(id)
}

// Len is the number of live sessions.
func (m *SessionManager) Len() int {
	return m.sessions.Len()
}

// CloseAll drops every session.
func (m *SessionManager) CloseAll() {
	m.sessions.Purge()
}
