package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mocamara/se-atlas/internal/core/observability"
	"github.com/mocamara/se-atlas/internal/shapes"
)

// CookieName is the session cookie issued at login.
const CookieName = "se_session"

// Session is one authenticated login. It owns the drawn-shape list, which
// dies with it.
type Session struct {
	ID        string
	User      string
	Role      Role
	Shapes    *shapes.List
	ExpiresAt time.Time
}

func (s *Session) IsAdmin() bool { return s.Role == RoleAdmin }

// SessionStore keeps sessions in memory only; restarts log everyone out.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (st *SessionStore) Create(u User) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := &Session{
		ID:        uuid.NewString(),
		User:      u.Name,
		Role:      u.Role,
		Shapes:    shapes.NewList(),
		ExpiresAt: st.now().Add(st.ttl),
	}
	st.sessions[s.ID] = s
	observability.SetSessionsActive(len(st.sessions))
	return s
}

// Get resolves a session ID, renewing the expiry on use. Expired sessions
// are dropped on access.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	if st.now().After(s.ExpiresAt) {
		delete(st.sessions, id)
		observability.SetSessionsActive(len(st.sessions))
		return nil, false
	}
	s.ExpiresAt = st.now().Add(st.ttl)
	return s, true
}

// Delete ends a session; the drawn shapes go with it.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	delete(st.sessions, id)
	observability.SetSessionsActive(len(st.sessions))
}
