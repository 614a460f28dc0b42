// Package repository defines payment persistence contracts.
package repository

import (
	"context"

	"payment-portal/backend/internal/payment/domain"
)

// PaymentRepository persists payments and supports the review workflow.
type PaymentRepository interface {
	// Create stores a new payment.
	Create(ctx context.Context, p *domain.Payment) error
	// GetByID returns the payment, or nil when no payment has that id.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	// List returns all payments, newest first. When status is non-empty only
	// payments in that status are returned.
	List(ctx context.Context, status domain.Status) ([]*domain.Payment, error)
	// UpdateStatus sets the payment's status and refreshes its updated-at
	// timestamp.
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
}
