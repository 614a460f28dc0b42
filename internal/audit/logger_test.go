package audit

import (
	"context"
	"errors"
	"testing"

	"payment-portal/backend/internal/audit/domain"
)

type mockAuditRepo struct {
	entries   []*domain.AuditLog
	createErr error
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListByActor(ctx context.Context, actorID string, limit, offset int32) ([]*domain.AuditLog, error) {
	return nil, nil
}

func TestLogEvent(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, func(context.Context) string { return "203.0.113.9" })

	logger.LogEvent(context.Background(), "actor-1", "customer", ActionLoginSuccess, "auth", `{"mode":"session"}`)

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.ID == "" {
		t.Error("expected generated entry ID")
	}
	if e.ActorID != "actor-1" || e.Role != "customer" {
		t.Errorf("actor = %s/%s, want actor-1/customer", e.ActorID, e.Role)
	}
	if e.Action != ActionLoginSuccess || e.Resource != "auth" {
		t.Errorf("event = %s/%s", e.Action, e.Resource)
	}
	if e.IP != "203.0.113.9" {
		t.Errorf("IP = %q", e.IP)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestLogEventNilExtractor(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, nil)

	logger.LogEvent(context.Background(), "", "", ActionLoginFailure, "auth", "")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("IP = %q, want unknown", repo.entries[0].IP)
	}
}

func TestLogEventBestEffort(t *testing.T) {
	repo := &mockAuditRepo{createErr: errors.New("db down")}
	logger := NewLogger(repo, nil)

	// Must not panic or propagate the repository error.
	logger.LogEvent(context.Background(), "actor-1", "employee", ActionLogout, "auth", "")
}

func TestLogEventNilRepo(t *testing.T) {
	logger := NewLogger(nil, nil)
	logger.LogEvent(context.Background(), "a", "customer", ActionRegistration, "auth", "")
}
