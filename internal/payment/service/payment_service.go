// Package service implements payment capture and the employee review
// workflow.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"payment-portal/backend/internal/payment/domain"
	"payment-portal/backend/internal/payment/repository"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrUnknownStatus   = errors.New("unknown payment status")
	// ErrInvalidTransition is returned when the requested status change is not
	// permitted by the review workflow.
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrInvalidPaymentID  = errors.New("invalid payment id")
)

// FieldError reports a single field that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field-level validation failures.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// PaymentService captures payments from customers and moves them through the
// review workflow.
type PaymentService struct {
	payments repository.PaymentRepository
}

// NewPaymentService returns a PaymentService backed by the given repository.
func NewPaymentService(payments repository.PaymentRepository) *PaymentService {
	return &PaymentService{payments: payments}
}

// SubmitInput is the customer-provided payment instruction. Amount stays a
// string end to end; it is pattern-validated, never parsed as a float.
type SubmitInput struct {
	Amount             string
	Currency           string
	Provider           string
	PayeeName          string
	PayeeAccountNumber string
	SWIFTCode          string
}

var (
	amountRegex       = regexp.MustCompile(`^(?:[1-9]\d*|0?\.\d*[1-9]\d?)$`)
	payeeNameRegex    = regexp.MustCompile(`^[A-Za-z\s-]+$`)
	payeeAccountRegex = regexp.MustCompile(`^\d{9,12}$`)
	swiftCodeRegex    = regexp.MustCompile(`^[A-Za-z0-9]{8,11}$`)
)

var allowedCurrencies = map[string]bool{"USD": true, "EUR": true, "ZAR": true, "GBP": true}

// Submit validates and stores a new payment in Pending status on behalf of
// the given customer.
func (s *PaymentService) Submit(ctx context.Context, customerID string, in SubmitInput) (*domain.Payment, error) {
	var fields []FieldError
	if !amountRegex.MatchString(in.Amount) {
		fields = append(fields, FieldError{"amount", "invalid amount value"})
	}
	if !allowedCurrencies[in.Currency] {
		fields = append(fields, FieldError{"currency", "invalid currency selected"})
	}
	if in.Provider != "SWIFT" {
		fields = append(fields, FieldError{"provider", "invalid payment provider selected"})
	}
	if !payeeNameRegex.MatchString(in.PayeeName) {
		fields = append(fields, FieldError{"payeeName", "invalid payee name"})
	}
	if !payeeAccountRegex.MatchString(in.PayeeAccountNumber) {
		fields = append(fields, FieldError{"payeeAccountNumber", "invalid payee account"})
	}
	if !swiftCodeRegex.MatchString(in.SWIFTCode) {
		fields = append(fields, FieldError{"swiftCode", "invalid SWIFT code"})
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	now := time.Now().UTC()
	p := &domain.Payment{
		ID:                 uuid.New().String(),
		CustomerID:         customerID,
		Amount:             in.Amount,
		Currency:           in.Currency,
		Provider:           in.Provider,
		PayeeName:          in.PayeeName,
		PayeeAccountNumber: in.PayeeAccountNumber,
		SWIFTCode:          in.SWIFTCode,
		Status:             domain.StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns payments in the given status, newest first. An empty status
// lists everything.
func (s *PaymentService) List(ctx context.Context, status domain.Status) ([]*domain.Payment, error) {
	if status != "" && !status.IsValid() {
		return nil, ErrUnknownStatus
	}
	return s.payments.List(ctx, status)
}

// UpdateStatus moves a payment to the given status if the workflow allows it.
func (s *PaymentService) UpdateStatus(ctx context.Context, id string, next domain.Status) (*domain.Payment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidPaymentID
	}
	if !next.IsValid() {
		return nil, ErrUnknownStatus
	}
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPaymentNotFound
	}
	if !p.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}
	if err := s.payments.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	p.Status = next
	p.UpdatedAt = time.Now().UTC()
	return p, nil
}
