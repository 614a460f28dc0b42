package authz

import (
	"context"
	"testing"
)

func TestAllow(t *testing.T) {
	e, err := NewOPAEvaluator()
	if err != nil {
		t.Fatalf("NewOPAEvaluator() error = %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		role, action string
		want         bool
	}{
		{"customer", ActionPaymentCreate, true},
		{"customer", ActionPaymentList, false},
		{"customer", ActionPaymentStatus, false},
		{"employee", ActionPaymentList, true},
		{"employee", ActionPaymentStatus, true},
		{"employee", ActionPaymentCreate, false},
		{"customer", ActionPing, true},
		{"employee", ActionPing, true},
		{"", ActionPing, false},
		{"admin", ActionPaymentList, false},
		{"customer", "payments:delete", false},
	}
	for _, tt := range tests {
		got, err := e.Allow(ctx, tt.role, tt.action)
		if err != nil {
			t.Errorf("Allow(%q, %q) error = %v", tt.role, tt.action, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Allow(%q, %q) = %v, want %v", tt.role, tt.action, got, tt.want)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	e, err := NewOPAEvaluator()
	if err != nil {
		t.Fatalf("NewOPAEvaluator() error = %v", err)
	}
	if err := e.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
