package domain

import "time"

// Event is one per-request telemetry record. JSON tags are the wire format on
// the Kafka topic; the worker and the Loki labeler both depend on them.
type Event struct {
	EventType   string    `json:"eventType"`
	Source      string    `json:"source"`
	PrincipalID string    `json:"principalId,omitempty"`
	Role        string    `json:"role,omitempty"`
	Method      string    `json:"method"`
	Route       string    `json:"route"`
	Status      int       `json:"status"`
	DurationMS  int64     `json:"durationMs"`
	IP          string    `json:"ip,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
