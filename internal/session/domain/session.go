package domain

import "time"

// Record is the server-side state bound to an opaque session identifier.
// The identifier itself is the store key and is never derivable from the
// record contents.
type Record struct {
	ID           string    `json:"id"`
	PrincipalID  string    `json:"principal_id"`
	Role         string    `json:"role"`
	CSRFToken    string    `json:"csrf_token,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}
