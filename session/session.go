// Package session wraps the per-browser cookie session with typed
// access to its two identity slots: the authenticated user id and the
// anonymous guest token.
package session

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/sessions"
)

const (
	cookieName = "taskdeck_session"
	keyUserID  = "user_id"
	keyGuestID = "guest_id"
)

// Manager hands out the session bag backed by a signed cookie.
type Manager struct {
	store *sessions.CookieStore
}

// NewManager creates a Manager signing cookies with the given secret.
func NewManager(secret []byte) *Manager {
	store := sessions.NewCookieStore(secret)
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.Path = "/"
	// The store defaults to Secure cookies, which clients drop over
	// plain HTTP. The server terminates no TLS itself; set
	// SESSION_SECURE=1 behind an HTTPS proxy.
	store.Options.Secure = os.Getenv("SESSION_SECURE") == "1"
	return &Manager{store: store}
}

// Get returns the request's session. A missing or undecodable cookie
// yields a fresh empty session rather than an error.
func (m *Manager) Get(r *http.Request) *Session {
	s, _ := m.store.Get(r, cookieName)
	return &Session{s: s}
}

// Session is one browser's key-value bag. Mutations are tracked so Save
// only writes the cookie when something changed.
type Session struct {
	s     *sessions.Session
	dirty bool
}

// UserID returns the authenticated user id, if present.
func (s *Session) UserID() (int64, bool) {
	id, ok := s.s.Values[keyUserID].(int64)
	return id, ok
}

func (s *Session) SetUserID(id int64) {
	s.s.Values[keyUserID] = id
	s.dirty = true
}

func (s *Session) ClearUserID() {
	if _, ok := s.s.Values[keyUserID]; !ok {
		return
	}
	delete(s.s.Values, keyUserID)
	s.dirty = true
}

// GuestID returns the guest token, if present.
func (s *Session) GuestID() (string, bool) {
	token, ok := s.s.Values[keyGuestID].(string)
	return token, ok
}

func (s *Session) SetGuestID(token string) {
	s.s.Values[keyGuestID] = token
	s.dirty = true
}

func (s *Session) ClearGuestID() {
	if _, ok := s.s.Values[keyGuestID]; !ok {
		return
	}
	delete(s.s.Values, keyGuestID)
	s.dirty = true
}

// Dirty reports whether the session changed since it was loaded.
func (s *Session) Dirty() bool {
	return s.dirty
}

// Save writes the cookie if the session has pending changes. Must be
// called before the response body is written.
func (s *Session) Save(r *http.Request, w http.ResponseWriter) error {
	if !s.dirty {
		return nil
	}
	if err := s.s.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.dirty = false
	return nil
}
