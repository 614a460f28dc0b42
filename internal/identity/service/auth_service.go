// Package service implements registration and login for customers and
// employees: input validation, uniqueness checks, argon2id hashing, and
// bearer-token issuance. Session establishment is the transport layer's
// concern; this service only decides who the caller is.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"payment-portal/backend/internal/identity/domain"
	"payment-portal/backend/internal/identity/repository"
	"payment-portal/backend/internal/security"
)

// Sentinel errors for the auth service; the HTTP layer maps them to status codes.
var (
	ErrCustomerExists = errors.New("customer with these details already exists")
	ErrEmailInUse     = errors.New("email already in use")
	// ErrInvalidCredentials is deliberately uniform: a wrong password, a wrong
	// account number, and a nonexistent email all produce this same error so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// FieldError reports a single field that failed shape validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field-level validation failures. Validation is
// reported precisely to aid legitimate users; it runs before any mutation.
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

// PasswordHasher hashes and verifies passwords. *security.Hasher satisfies it.
type PasswordHasher interface {
	Hash(password []byte) (string, error)
	Compare(encoded string, password []byte) error
}

// CustomerRepo is the minimal customer repository needed by the auth service.
type CustomerRepo interface {
	GetByEmailAndAccount(ctx context.Context, email, accountNumber string) (*domain.Customer, error)
	Exists(ctx context.Context, email, idNumber, accountNumber string) (bool, error)
	Create(ctx context.Context, c *domain.Customer) error
}

// EmployeeRepo is the minimal employee repository needed by the auth service.
type EmployeeRepo interface {
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	Create(ctx context.Context, e *domain.Employee) error
}

// LoginResult holds the outcome of a successful login. The bearer token is
// always issued; the HTTP layer additionally rotates a session for
// cookie-capable clients.
type LoginResult struct {
	PrincipalID string
	Role        domain.Role
	Token       string
	ExpiresAt   time.Time
}

// AuthService implements register and login for both roles.
type AuthService struct {
	customers CustomerRepo
	employees EmployeeRepo
	hasher    PasswordHasher
	tokens    *security.TokenProvider
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(customers CustomerRepo, employees EmployeeRepo, hasher PasswordHasher, tokens *security.TokenProvider) *AuthService {
	return &AuthService{customers: customers, employees: employees, hasher: hasher, tokens: tokens}
}

// RegisterCustomerInput is the shape-validated registration payload.
type RegisterCustomerInput struct {
	FullName      string
	Email         string
	Password      string
	IDNumber      string
	AccountNumber string
}

// RegisterCustomer validates the input, rejects uniqueness-key collisions,
// and creates the customer record. The collision check runs before the
// password is hashed, so a rejected registration performs no hashing work.
func (s *AuthService) RegisterCustomer(ctx context.Context, in RegisterCustomerInput) (*domain.Customer, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	var fields []FieldError
	if !nameRegex.MatchString(in.FullName) {
		fields = append(fields, FieldError{"fullName", "only letters, spaces and hyphens allowed"})
	}
	if !emailRegex.MatchString(in.Email) {
		fields = append(fields, FieldError{"email", "invalid email address format"})
	}
	if msg := passwordMessage(in.Password); msg != "" {
		fields = append(fields, FieldError{"password", msg})
	}
	if !idNumberRegex.MatchString(in.IDNumber) {
		fields = append(fields, FieldError{"idNumber", "must be a 13-digit ID number"})
	}
	if !accountNumberRegex.MatchString(in.AccountNumber) {
		fields = append(fields, FieldError{"accountNumber", "must be 9 to 12 digits"})
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	exists, err := s.customers.Exists(ctx, in.Email, in.IDNumber, in.AccountNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCustomerExists
	}

	hashed, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, err
	}
	c := &domain.Customer{
		ID:            uuid.New().String(),
		FullName:      in.FullName,
		Email:         in.Email,
		IDNumber:      in.IDNumber,
		AccountNumber: in.AccountNumber,
		PasswordHash:  hashed,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.customers.Create(ctx, c); err != nil {
		// The Exists pre-check races concurrent registrations; the unique
		// indexes catch the loser.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrCustomerExists
		}
		return nil, err
	}
	return c, nil
}

// RegisterEmployeeInput is the shape-validated employee registration payload.
type RegisterEmployeeInput struct {
	FullName string
	Email    string
	Password string
}

// RegisterEmployee validates the input, rejects email collisions, and creates
// the employee record.
func (s *AuthService) RegisterEmployee(ctx context.Context, in RegisterEmployeeInput) (*domain.Employee, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	var fields []FieldError
	if !nameRegex.MatchString(in.FullName) {
		fields = append(fields, FieldError{"fullName", "only letters, spaces and hyphens allowed"})
	}
	if !emailRegex.MatchString(in.Email) {
		fields = append(fields, FieldError{"email", "invalid email address format"})
	}
	if msg := passwordMessage(in.Password); msg != "" {
		fields = append(fields, FieldError{"password", msg})
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	existing, err := s.employees.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailInUse
	}

	hashed, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, err
	}
	e := &domain.Employee{
		ID:           uuid.New().String(),
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: hashed,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.employees.Create(ctx, e); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}
	return e, nil
}

// LoginCustomer authenticates with email, account number, and password.
// Any failure surfaces as ErrInvalidCredentials.
func (s *AuthService) LoginCustomer(ctx context.Context, email, accountNumber, password string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || accountNumber == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	c, err := s.customers.GetByEmailAndAccount(ctx, email, accountNumber)
	if err != nil {
		return nil, err
	}
	if c == nil {
		// Hash anyway so the timing of the response does not reveal whether
		// the account exists.
		_ = s.hasher.Compare(decoyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(c.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, expiresAt, err := s.tokens.Issue(c.ID, string(domain.RoleCustomer))
	if err != nil {
		return nil, err
	}
	return &LoginResult{PrincipalID: c.ID, Role: domain.RoleCustomer, Token: token, ExpiresAt: expiresAt}, nil
}

// LoginEmployee authenticates with email and password.
// Any failure surfaces as ErrInvalidCredentials.
func (s *AuthService) LoginEmployee(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	e, err := s.employees.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if e == nil {
		_ = s.hasher.Compare(decoyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(e.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, expiresAt, err := s.tokens.Issue(e.ID, string(domain.RoleEmployee))
	if err != nil {
		return nil, err
	}
	return &LoginResult{PrincipalID: e.ID, Role: domain.RoleEmployee, Token: token, ExpiresAt: expiresAt}, nil
}

// decoyHash is compared against when no record matches, equalizing response
// timing between unknown and known principals.
const decoyHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

var (
	nameRegex          = regexp.MustCompile(`^[A-Za-z][A-Za-z\s-]*$`)
	emailRegex         = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	idNumberRegex      = regexp.MustCompile(`^\d{13}$`)
	accountNumberRegex = regexp.MustCompile(`^\d{9,12}$`)
)

// passwordMessage reports why a password fails policy, or "" if it passes:
// at least 8 characters with an uppercase letter, a lowercase letter, a
// digit, and a symbol.
func passwordMessage(password string) string {
	if len(password) < 8 {
		return "must be at least 8 characters"
	}
	var hasUpper, hasLower, hasNumber, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasNumber = true
		default:
			hasSymbol = true
		}
	}
	if !hasUpper || !hasLower || !hasNumber || !hasSymbol {
		return "must contain uppercase, lowercase, digit, and symbol characters"
	}
	return ""
}
