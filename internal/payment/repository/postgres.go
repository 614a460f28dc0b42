package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"payment-portal/backend/internal/payment/domain"
)

// PaymentPostgresRepository implements PaymentRepository over database/sql.
type PaymentPostgresRepository struct {
	db *sql.DB
}

// NewPaymentPostgresRepository returns a Postgres-backed payment repository.
func NewPaymentPostgresRepository(db *sql.DB) *PaymentPostgresRepository {
	return &PaymentPostgresRepository{db: db}
}

func (r *PaymentPostgresRepository) Create(ctx context.Context, p *domain.Payment) error {
	const query = `
		INSERT INTO payments (id, customer_id, amount, currency, provider, payee_name, payee_account_number, swift_code, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.CustomerID, p.Amount, p.Currency, p.Provider, p.PayeeName, p.PayeeAccountNumber, p.SWIFTCode, string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentPostgresRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	const query = `
		SELECT id, customer_id, amount, currency, provider, payee_name, payee_account_number, swift_code, status, created_at, updated_at
		FROM payments WHERE id = $1`
	return scanPayment(r.db.QueryRowContext(ctx, query, id))
}

func (r *PaymentPostgresRepository) List(ctx context.Context, status domain.Status) ([]*domain.Payment, error) {
	query := `
		SELECT id, customer_id, amount, currency, provider, payee_name, payee_account_number, swift_code, status, created_at, updated_at
		FROM payments`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (r *PaymentPostgresRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	const query = `UPDATE payments SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var p domain.Payment
	var status string
	err := row.Scan(&p.ID, &p.CustomerID, &p.Amount, &p.Currency, &p.Provider, &p.PayeeName, &p.PayeeAccountNumber, &p.SWIFTCode, &status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	p.Status = domain.Status(status)
	return &p, nil
}
