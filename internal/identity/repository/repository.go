package repository

import (
	"context"

	"payment-portal/backend/internal/identity/domain"
)

// CustomerRepository defines persistence for customer credential records.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	// GetByEmailAndAccount returns the customer matching both email and
	// account number, or nil if not found.
	GetByEmailAndAccount(ctx context.Context, email, accountNumber string) (*domain.Customer, error)
	// Exists reports whether any customer already uses the email, ID number,
	// or account number.
	Exists(ctx context.Context, email, idNumber, accountNumber string) (bool, error)
	Create(ctx context.Context, c *domain.Customer) error
}

// EmployeeRepository defines persistence for employee credential records.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	Create(ctx context.Context, e *domain.Employee) error
}
