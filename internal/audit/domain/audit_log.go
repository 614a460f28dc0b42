package domain

import "time"

// AuditLog represents one recorded security-relevant event.
type AuditLog struct {
	ID        string
	ActorID   string
	Role      string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
