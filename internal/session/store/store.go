// Package store provides the session store adapter: opaque-identifier keyed
// session records with sliding expiry, identifier rotation on login, and a
// per-session CSRF token slot.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"payment-portal/backend/internal/session/domain"
)

// Store is the session store adapter. Implementations must evict records at
// the TTL boundary: Read of an expired record returns (nil, nil), never a
// stale hit. A Read error means the store is unreachable; callers treat that
// as "no session" (fail closed) since bearer-token auth remains available.
type Store interface {
	// Create allocates a new record under a fresh, unguessable identifier.
	Create(ctx context.Context, principalID, role string) (*domain.Record, error)
	// Regenerate destroys oldID (if present) and creates a fresh record for
	// the principal, observed as a single transition. Called exactly once per
	// login to defeat session fixation; the new identifier has never been
	// issued before. oldID may be empty when the caller had no prior session.
	Regenerate(ctx context.Context, oldID, principalID, role string) (*domain.Record, error)
	// Read returns the record for id, or (nil, nil) when absent or expired.
	Read(ctx context.Context, id string) (*domain.Record, error)
	// Touch extends the record's sliding expiry and last-activity timestamp.
	Touch(ctx context.Context, id string) error
	// Destroy removes the record. Destroying an absent id is not an error.
	Destroy(ctx context.Context, id string) error
	// SetCSRFToken persists the per-session anti-forgery token without
	// resetting the record's remaining lifetime.
	SetCSRFToken(ctx context.Context, id, token string) error
}

// NewSessionID returns a cryptographically random 128-bit identifier in hex.
func NewSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
