package models

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionVersion is bumped whenever the persisted layout changes
const SessionVersion = 1

// Cookie is the persisted subset of an http.Cookie. The platform keys the
// authenticated session on cookies, so these are all that is needed to
// rebuild a client after a restart.
type Cookie struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Session is an authenticated handle against the platform.
type Session struct {
	ID            uuid.UUID     `json:"id" yaml:"id"`
	Version       int           `json:"version" yaml:"version"`
	Endpoint      string        `json:"endpoint" yaml:"endpoint"`     // Platform base URL the session belongs to
	Identifier    string        `json:"identifier" yaml:"identifier"` // Account the session was opened for
	Cookies       []Cookie      `json:"cookies,omitempty" yaml:"cookies,omitempty"`
	CreatedAt     time.Time     `json:"created_at" yaml:"created_at"`
	LastValidated time.Time     `json:"last_validated" yaml:"last_validated"`
	Timeout       time.Duration `json:"timeout" yaml:"timeout"`
	ExpiresAt     time.Time     `json:"expires_at,omitempty" yaml:"expires_at,omitempty"` // Server reported token expiry, zero when unknown
}

func NewSession(endpoint string, identifier string, timeout time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:            uuid.New(),
		Version:       SessionVersion,
		Endpoint:      endpoint,
		Identifier:    identifier,
		CreatedAt:     now,
		LastValidated: now,
		Timeout:       timeout,
	}
}

// TimedOut is the cheap local half of the validity check. It never talks to
// the platform and so cannot detect server side revocation.
func (s *Session) TimedOut(now time.Time) bool {
	if s == nil {
		return true
	}
	if !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt) {
		return true
	}
	if s.Timeout <= 0 {
		return false
	}
	return now.Sub(s.LastValidated) >= s.Timeout
}

// Remaining returns how long the session has left before the local timeout
// trips. Zero once timed out.
func (s *Session) Remaining(now time.Time) time.Duration {
	if s.TimedOut(now) {
		return 0
	}

	var remaining time.Duration = -1
	if s.Timeout > 0 {
		remaining = s.Timeout - now.Sub(s.LastValidated)
	}
	if !s.ExpiresAt.IsZero() {
		untilExpiry := s.ExpiresAt.Sub(now)
		if remaining < 0 || untilExpiry < remaining {
			remaining = untilExpiry
		}
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MarkValidated records a successful remote validation.
func (s *Session) MarkValidated(now time.Time) {
	s.LastValidated = now.UTC()
}

// SetCookies merges cookies into the session. A cookie whose name is
// already known replaces the stored value, matching how a jar treats them.
func (s *Session) SetCookies(cookies []*http.Cookie) {
	seen := make(map[string]int, len(s.Cookies)+len(cookies))
	for idx, c := range s.Cookies {
		seen[c.Name] = idx
	}
	for _, c := range cookies {
		if c == nil || len(c.Name) == 0 {
			continue
		}
		if idx, ok := seen[c.Name]; ok {
			s.Cookies[idx].Value = c.Value
			continue
		}
		seen[c.Name] = len(s.Cookies)
		s.Cookies = append(s.Cookies, Cookie{Name: c.Name, Value: c.Value})
	}
}

func (s *Session) HTTPCookies() []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return cookies
}
