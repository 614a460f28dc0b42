// Package audit records security-relevant portal events: registrations,
// login outcomes, logouts, payment submissions and status changes.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"payment-portal/backend/internal/audit/domain"
	auditrepo "payment-portal/backend/internal/audit/repository"
)

// Actions recorded by the portal.
const (
	ActionLoginSuccess         = "login_success"
	ActionLoginFailure         = "login_failure"
	ActionLogout               = "logout"
	ActionRegistration         = "registration"
	ActionPaymentSubmitted     = "payment_submitted"
	ActionPaymentStatusChanged = "payment_status_changed"
)

// IPExtractor returns the client IP carried in the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event. LogEvent is best-effort: failures
// are logged and never affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, actorID, role, action, resource, metadata string)
}

// Logger implements AuditLogger over the audit repository.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor
// for client IP. ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// LogEvent writes one audit log entry. actorID may be empty for
// unattributable events such as failed logins.
func (l *Logger) LogEvent(ctx context.Context, actorID, role, action, resource, metadata string) {
	if l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if extracted := l.ipExtractor(ctx); extracted != "" {
			ip = extracted
		}
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		ActorID:   actorID,
		Role:      role,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
}
