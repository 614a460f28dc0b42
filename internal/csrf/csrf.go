// Package csrf implements double-submit cross-site request forgery
// protection. The token travels twice on every unsafe request: in the
// client-readable XSRF-TOKEN cookie and echoed back in the X-XSRF-TOKEN
// header. A cross-site attacker can force the cookie to be sent but cannot
// read it to fill in the header.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"

	"payment-portal/backend/internal/session/store"
)

const (
	// CookieName is the client-readable token cookie.
	CookieName = "XSRF-TOKEN"
	// HeaderName is the header the client must echo the cookie into.
	HeaderName = "X-XSRF-TOKEN"
)

var (
	ErrMissingToken  = errors.New("csrf token missing")
	ErrTokenMismatch = errors.New("csrf token mismatch")
	// ErrStaleSession means the request carried a session cookie for a session
	// that no longer exists, so any token bound to it is stale.
	ErrStaleSession = errors.New("csrf token bound to a dead session")
)

// Guard issues and validates double-submit tokens, binding them to the
// server-side session when one exists.
type Guard struct {
	sessions      store.Store
	sessionCookie string
	secure        bool
}

// NewGuard returns a Guard. sessionCookie is the name of the session id
// cookie; secure controls the Secure attribute on issued token cookies.
func NewGuard(sessions store.Store, sessionCookie string, secure bool) *Guard {
	return &Guard{sessions: sessions, sessionCookie: sessionCookie, secure: secure}
}

// NewToken returns 32 hex characters of CSPRNG output.
func NewToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Issue ensures the caller holds a token and sets the token cookie. When the
// request belongs to a live session the session's stored token is reused, so
// repeated calls are idempotent; otherwise a fresh token is minted for the
// anonymous pre-login flow. A session cookie naming a dead session is cleared
// so it stops tripping the stale-session check on subsequent unsafe requests.
func (g *Guard) Issue(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(g.sessionCookie); err == nil && c.Value != "" {
		s, err := g.sessions.Read(ctx, c.Value)
		if err != nil {
			return "", err
		}
		if s != nil {
			token := s.CSRFToken
			if token == "" {
				token, err = NewToken()
				if err != nil {
					return "", err
				}
				if err := g.sessions.SetCSRFToken(ctx, s.ID, token); err != nil {
					return "", err
				}
			}
			g.SetCookie(w, token)
			return token, nil
		}
		// The session vanished without a logout (expiry, store loss).
		g.clearSessionCookie(w)
	}

	token, err := NewToken()
	if err != nil {
		return "", err
	}
	g.SetCookie(w, token)
	return token, nil
}

// SetCookie writes the token cookie. It is deliberately readable by scripts;
// secrecy from the attacker comes from the same-origin policy, not HttpOnly.
func (g *Guard) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Secure:   g.secure,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie expires the token cookie.
func (g *Guard) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   g.secure,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookie expires the session id cookie with the same attributes
// the login flow sets it with.
func (g *Guard) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   g.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// Validate checks an unsafe request: the header must match the cookie in
// constant time, and when the request names a session the token must match
// the one bound to that session. A session cookie pointing at a dead session
// fails closed.
func (g *Guard) Validate(ctx context.Context, r *http.Request) error {
	header := r.Header.Get(HeaderName)
	cookie, err := r.Cookie(CookieName)
	if header == "" || err != nil || cookie.Value == "" {
		return ErrMissingToken
	}
	if subtle.ConstantTimeCompare([]byte(header), []byte(cookie.Value)) != 1 {
		return ErrTokenMismatch
	}

	sc, err := r.Cookie(g.sessionCookie)
	if err != nil || sc.Value == "" {
		return nil
	}
	s, err := g.sessions.Read(ctx, sc.Value)
	if err != nil {
		return err
	}
	if s == nil {
		return ErrStaleSession
	}
	if s.CSRFToken == "" || subtle.ConstantTimeCompare([]byte(header), []byte(s.CSRFToken)) != 1 {
		return ErrTokenMismatch
	}
	return nil
}
