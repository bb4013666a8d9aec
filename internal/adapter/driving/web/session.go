package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/kickstart/internal/domain/port/driven"
)

// SessionCookieName is the cookie carrying the session ID.
const SessionCookieName = "kickstart_session"

type sessionContextKey struct{}

// SessionManager attaches a driven.Session to every request. Session IDs are
// random UUIDs carried in an HttpOnly cookie; the cookie is only issued the
// first time a request writes to its session.
type SessionManager struct {
	backend driven.SessionBackend
	secure  bool
	ttl     time.Duration
}

// NewSessionManager creates a SessionManager storing values in backend.
// secure marks the cookie Secure; ttl sets its Max-Age (zero for a browser
// session cookie).
func NewSessionManager(backend driven.SessionBackend, secure bool, ttl time.Duration) *SessionManager {
	return &SessionManager{backend: backend, secure: secure, ttl: ttl}
}

// Middleware makes the request's session available through SessionFrom.
func (m *SessionManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := &cookieSession{manager: m, w: w}
		if c, err := r.Cookie(SessionCookieName); err == nil {
			if id, err := uuid.Parse(c.Value); err == nil {
				sess.id = id.String()
			}
		}

		ctx := context.WithValue(r.Context(), sessionContextKey{}, driven.Session(sess))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFrom returns the session attached by SessionManager.Middleware.
func SessionFrom(ctx context.Context) (driven.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(driven.Session)
	return sess, ok
}

func (m *SessionManager) cookie(id string) *http.Cookie {
	c := &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
	}
	if m.ttl > 0 {
		c.MaxAge = int(m.ttl.Seconds())
	}
	return c
}

// cookieSession binds the session backend to one request.
type cookieSession struct {
	manager *SessionManager
	w       http.ResponseWriter

	mu sync.Mutex
	id string
}

func (s *cookieSession) Read(ctx context.Context, key string) (string, bool, error) {
	id := s.currentID()
	if id == "" {
		return "", false, nil
	}
	return s.manager.backend.Get(ctx, id, key)
}

func (s *cookieSession) Write(ctx context.Context, key, value string) error {
	return s.manager.backend.Set(ctx, s.ensureID(), key, value)
}

func (s *cookieSession) Delete(ctx context.Context, key string) error {
	id := s.currentID()
	if id == "" {
		return nil
	}
	return s.manager.backend.Delete(ctx, id, key)
}

func (s *cookieSession) currentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// ensureID returns the session ID, minting one and setting the cookie on
// first use. The cookie must be set before the response header is written.
func (s *cookieSession) ensureID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == "" {
		s.id = uuid.NewString()
		http.SetCookie(s.w, s.manager.cookie(s.id))
	}
	return s.id
}
