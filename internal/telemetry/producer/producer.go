// Package producer defines the interface for publishing telemetry events to
// the event bus.
package producer

import (
	"context"

	"payment-portal/backend/internal/telemetry/domain"
)

// Producer publishes telemetry events. Callers use it best-effort: log and
// ignore errors.
type Producer interface {
	// Emit sends a single event. Implementations may block briefly; call from
	// a goroutine if needed.
	Emit(ctx context.Context, event *domain.Event) error
	// Close releases resources. Safe to call if already closed.
	Close() error
}
