package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"payment-portal/backend/internal/identity/domain"
)

// ErrDuplicateKey reports an insert that lost a race against another insert
// holding the same unique key. The Exists/GetByEmail pre-checks are not
// atomic with Create; the unique indexes are the authority.
var ErrDuplicateKey = errors.New("duplicate key")

const uniqueViolationCode = "23505"

// translateError maps a Postgres unique-index violation to ErrDuplicateKey.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrDuplicateKey
	}
	return err
}

type CustomerPostgresRepository struct {
	db *sql.DB
}

// NewCustomerPostgresRepository returns a customer repository that uses the given db for persistence.
func NewCustomerPostgresRepository(db *sql.DB) *CustomerPostgresRepository {
	return &CustomerPostgresRepository{db: db}
}

// GetByID returns the customer for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *CustomerPostgresRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const query = `SELECT id, full_name, email, id_number, account_number, password_hash, created_at
		FROM customers WHERE id = $1`
	return scanCustomer(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmailAndAccount returns the customer matching both email and account
// number, or nil if not found.
func (r *CustomerPostgresRepository) GetByEmailAndAccount(ctx context.Context, email, accountNumber string) (*domain.Customer, error) {
	const query = `SELECT id, full_name, email, id_number, account_number, password_hash, created_at
		FROM customers WHERE email = $1 AND account_number = $2`
	return scanCustomer(r.db.QueryRowContext(ctx, query, email, accountNumber))
}

// Exists reports whether any customer already uses the email, ID number, or account number.
func (r *CustomerPostgresRepository) Exists(ctx context.Context, email, idNumber, accountNumber string) (bool, error) {
	const query = `SELECT EXISTS (
		SELECT 1 FROM customers WHERE email = $1 OR id_number = $2 OR account_number = $3)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email, idNumber, accountNumber).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Create persists the customer. The customer must have ID set; it is not assigned by this method.
// Returns ErrDuplicateKey when email, ID number, or account number is already taken.
func (r *CustomerPostgresRepository) Create(ctx context.Context, c *domain.Customer) error {
	const query = `INSERT INTO customers (id, full_name, email, id_number, account_number, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query, c.ID, c.FullName, c.Email, c.IDNumber, c.AccountNumber, c.PasswordHash, c.CreatedAt); err != nil {
		return translateError(err)
	}
	return nil
}

func scanCustomer(row *sql.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.FullName, &c.Email, &c.IDNumber, &c.AccountNumber, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

type EmployeePostgresRepository struct {
	db *sql.DB
}

// NewEmployeePostgresRepository returns an employee repository that uses the given db for persistence.
func NewEmployeePostgresRepository(db *sql.DB) *EmployeePostgresRepository {
	return &EmployeePostgresRepository{db: db}
}

// GetByID returns the employee for id, or nil if not found.
func (r *EmployeePostgresRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	const query = `SELECT id, full_name, email, password_hash, created_at FROM employees WHERE id = $1`
	return scanEmployee(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail returns the employee with the given email, or nil if not found.
func (r *EmployeePostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	const query = `SELECT id, full_name, email, password_hash, created_at FROM employees WHERE email = $1`
	return scanEmployee(r.db.QueryRowContext(ctx, query, email))
}

// Create persists the employee. The employee must have ID set.
// Returns ErrDuplicateKey when the email is already taken.
func (r *EmployeePostgresRepository) Create(ctx context.Context, e *domain.Employee) error {
	const query = `INSERT INTO employees (id, full_name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, e.ID, e.FullName, e.Email, e.PasswordHash, e.CreatedAt); err != nil {
		return translateError(err)
	}
	return nil
}

func scanEmployee(row *sql.Row) (*domain.Employee, error) {
	var e domain.Employee
	err := row.Scan(&e.ID, &e.FullName, &e.Email, &e.PasswordHash, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
