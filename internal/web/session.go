// Package web exposes the blog over HTTP: the public read side, the
// comment box, the feed and the authenticated admin surface.
package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionCookie = "cowblog_session"

type sessionEntry struct {
	userID    int64
	expiresAt time.Time
}

// SessionStore keeps logged-in admin sessions in memory, keyed by a
// random token. Sessions die with the process, which is acceptable
// for a single-admin blog.
type SessionStore struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]sessionEntry
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{ttl: ttl, m: make(map[string]sessionEntry)}
}

// Issue mints a token for the user.
func (s *SessionStore) Issue(userID int64) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.m[token] = sessionEntry{userID: userID, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return token
}

// Lookup resolves a token to a user id, expiring lazily.
func (s *SessionStore) Lookup(token string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.m[token]
	if !ok {
		return 0, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.m, token)
		return 0, false
	}
	return entry.userID, true
}

func (s *SessionStore) Revoke(token string) {
	s.mu.Lock()
	delete(s.m, token)
	s.mu.Unlock()
}

// requireAdmin rejects requests without a live session cookie.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		userID, ok := s.sessions.Lookup(token)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}
