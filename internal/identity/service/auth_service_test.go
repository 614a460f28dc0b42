package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"payment-portal/backend/internal/identity/domain"
	"payment-portal/backend/internal/identity/repository"
	"payment-portal/backend/internal/security"
)

type memCustomerRepo struct {
	customers map[string]*domain.Customer // keyed by ID
	createErr error
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{customers: make(map[string]*domain.Customer)}
}

func (r *memCustomerRepo) GetByEmailAndAccount(_ context.Context, email, accountNumber string) (*domain.Customer, error) {
	for _, c := range r.customers {
		if c.Email == email && c.AccountNumber == accountNumber {
			return c, nil
		}
	}
	return nil, nil
}

func (r *memCustomerRepo) Exists(_ context.Context, email, idNumber, accountNumber string) (bool, error) {
	for _, c := range r.customers {
		if c.Email == email || c.IDNumber == idNumber || c.AccountNumber == accountNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *memCustomerRepo) Create(_ context.Context, c *domain.Customer) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.customers[c.ID] = c
	return nil
}

type memEmployeeRepo struct {
	employees map[string]*domain.Employee
	createErr error
}

func newMemEmployeeRepo() *memEmployeeRepo {
	return &memEmployeeRepo{employees: make(map[string]*domain.Employee)}
}

func (r *memEmployeeRepo) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	for _, e := range r.employees {
		if e.Email == email {
			return e, nil
		}
	}
	return nil, nil
}

func (r *memEmployeeRepo) Create(_ context.Context, e *domain.Employee) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.employees[e.ID] = e
	return nil
}

// countingHasher wraps a real hasher and counts Hash calls.
type countingHasher struct {
	inner     *security.Hasher
	hashCalls int
}

func (h *countingHasher) Hash(password []byte) (string, error) {
	h.hashCalls++
	return h.inner.Hash(password)
}

func (h *countingHasher) Compare(encoded string, password []byte) error {
	return h.inner.Compare(encoded, password)
}

func newTestService() (*AuthService, *memCustomerRepo, *memEmployeeRepo, *countingHasher) {
	customers := newMemCustomerRepo()
	employees := newMemEmployeeRepo()
	hasher := &countingHasher{inner: security.NewHasher(8192, 1, 1)}
	tokens := security.NewTokenProvider([]byte("test-secret-0123456789abcdef"), "payment-portal-auth", "payment-portal-api", time.Hour)
	return NewAuthService(customers, employees, hasher, tokens), customers, employees, hasher
}

func validCustomerInput() RegisterCustomerInput {
	return RegisterCustomerInput{
		FullName:      "Thandi van der Merwe",
		Email:         "thandi@example.com",
		Password:      "Str0ng!Pass",
		IDNumber:      "9001015009087",
		AccountNumber: "123456789",
	}
}

func TestRegisterCustomer(t *testing.T) {
	svc, repo, _, _ := newTestService()

	c, err := svc.RegisterCustomer(context.Background(), validCustomerInput())
	if err != nil {
		t.Fatalf("RegisterCustomer() error = %v", err)
	}
	if c.ID == "" {
		t.Error("expected generated customer ID")
	}
	if c.PasswordHash == "" || c.PasswordHash == "Str0ng!Pass" {
		t.Error("password must be stored hashed")
	}
	if _, ok := repo.customers[c.ID]; !ok {
		t.Error("customer not persisted")
	}
}

func TestRegisterCustomerNormalizesEmail(t *testing.T) {
	svc, _, _, _ := newTestService()

	in := validCustomerInput()
	in.Email = "  Thandi@Example.COM "
	c, err := svc.RegisterCustomer(context.Background(), in)
	if err != nil {
		t.Fatalf("RegisterCustomer() error = %v", err)
	}
	if c.Email != "thandi@example.com" {
		t.Errorf("email = %q, want lowercased and trimmed", c.Email)
	}
}

func TestRegisterCustomerValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterCustomerInput)
		field  string
	}{
		{"name with digits", func(in *RegisterCustomerInput) { in.FullName = "R2D2" }, "fullName"},
		{"empty name", func(in *RegisterCustomerInput) { in.FullName = "" }, "fullName"},
		{"bad email", func(in *RegisterCustomerInput) { in.Email = "not-an-email" }, "email"},
		{"short password", func(in *RegisterCustomerInput) { in.Password = "Ab1!" }, "password"},
		{"password without symbol", func(in *RegisterCustomerInput) { in.Password = "Abcdefg1" }, "password"},
		{"password without digit", func(in *RegisterCustomerInput) { in.Password = "Abcdefg!" }, "password"},
		{"password without upper", func(in *RegisterCustomerInput) { in.Password = "abcdefg1!" }, "password"},
		{"short id number", func(in *RegisterCustomerInput) { in.IDNumber = "12345" }, "idNumber"},
		{"id number with letters", func(in *RegisterCustomerInput) { in.IDNumber = "90010150090AB" }, "idNumber"},
		{"account too short", func(in *RegisterCustomerInput) { in.AccountNumber = "12345678" }, "accountNumber"},
		{"account too long", func(in *RegisterCustomerInput) { in.AccountNumber = "1234567890123" }, "accountNumber"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, hasher := newTestService()
			in := validCustomerInput()
			tt.mutate(&in)

			_, err := svc.RegisterCustomer(context.Background(), in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			found := false
			for _, f := range verr.Fields {
				if f.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("validation errors %v missing field %q", verr.Fields, tt.field)
			}
			if hasher.hashCalls != 0 {
				t.Error("password was hashed despite invalid input")
			}
		})
	}
}

func TestRegisterCustomerConflict(t *testing.T) {
	svc, _, _, hasher := newTestService()
	ctx := context.Background()

	if _, err := svc.RegisterCustomer(ctx, validCustomerInput()); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	callsAfterFirst := hasher.hashCalls

	// Same email, fresh ID and account number.
	in := validCustomerInput()
	in.IDNumber = "8802025009086"
	in.AccountNumber = "987654321"
	if _, err := svc.RegisterCustomer(ctx, in); !errors.Is(err, ErrCustomerExists) {
		t.Errorf("duplicate email: error = %v, want ErrCustomerExists", err)
	}

	// Same account number only.
	in = validCustomerInput()
	in.Email = "other@example.com"
	in.IDNumber = "8802025009086"
	if _, err := svc.RegisterCustomer(ctx, in); !errors.Is(err, ErrCustomerExists) {
		t.Errorf("duplicate account: error = %v, want ErrCustomerExists", err)
	}

	if hasher.hashCalls != callsAfterFirst {
		t.Errorf("hashCalls = %d after conflicts, want %d: conflicting registrations must not hash", hasher.hashCalls, callsAfterFirst)
	}
}

func TestRegisterLostInsertRace(t *testing.T) {
	// A concurrent registration can slip between the uniqueness pre-check and
	// the insert; the repository reports the unique-index violation and the
	// caller sees the same conflict error as if the pre-check had caught it.
	ctx := context.Background()

	svc, customers, _, _ := newTestService()
	customers.createErr = repository.ErrDuplicateKey
	if _, err := svc.RegisterCustomer(ctx, validCustomerInput()); !errors.Is(err, ErrCustomerExists) {
		t.Errorf("customer lost race: error = %v, want ErrCustomerExists", err)
	}

	svc, _, employees, _ := newTestService()
	employees.createErr = repository.ErrDuplicateKey
	in := RegisterEmployeeInput{FullName: "Eve Adams", Email: "eve@example.com", Password: "Corr3ct!Horse"}
	if _, err := svc.RegisterEmployee(ctx, in); !errors.Is(err, ErrEmailInUse) {
		t.Errorf("employee lost race: error = %v, want ErrEmailInUse", err)
	}
}

func TestRegisterEmployee(t *testing.T) {
	svc, _, repo, _ := newTestService()

	e, err := svc.RegisterEmployee(context.Background(), RegisterEmployeeInput{
		FullName: "Sipho Dlamini",
		Email:    "sipho@bank.example",
		Password: "Emp!0yee#1",
	})
	if err != nil {
		t.Fatalf("RegisterEmployee() error = %v", err)
	}
	if _, ok := repo.employees[e.ID]; !ok {
		t.Error("employee not persisted")
	}

	_, err = svc.RegisterEmployee(context.Background(), RegisterEmployeeInput{
		FullName: "Another Person",
		Email:    "sipho@bank.example",
		Password: "Emp!0yee#2",
	})
	if !errors.Is(err, ErrEmailInUse) {
		t.Errorf("duplicate employee email: error = %v, want ErrEmailInUse", err)
	}
}

func TestLoginCustomer(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	in := validCustomerInput()
	registered, err := svc.RegisterCustomer(ctx, in)
	if err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	res, err := svc.LoginCustomer(ctx, in.Email, in.AccountNumber, in.Password)
	if err != nil {
		t.Fatalf("LoginCustomer() error = %v", err)
	}
	if res.PrincipalID != registered.ID {
		t.Errorf("PrincipalID = %q, want %q", res.PrincipalID, registered.ID)
	}
	if res.Role != domain.RoleCustomer {
		t.Errorf("Role = %q, want customer", res.Role)
	}
	if res.Token == "" {
		t.Error("expected bearer token")
	}
	if !res.ExpiresAt.After(time.Now()) {
		t.Error("token already expired")
	}
}

func TestLoginCustomerFailuresAreUniform(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	in := validCustomerInput()
	if _, err := svc.RegisterCustomer(ctx, in); err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	tests := []struct {
		name                     string
		email, account, password string
	}{
		{"wrong password", in.Email, in.AccountNumber, "Wr0ng!Pass"},
		{"wrong account number", in.Email, "999999999", in.Password},
		{"unknown email", "nobody@example.com", in.AccountNumber, in.Password},
		{"empty password", in.Email, in.AccountNumber, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.LoginCustomer(ctx, tt.email, tt.account, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestLoginEmployee(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.RegisterEmployee(ctx, RegisterEmployeeInput{
		FullName: "Sipho Dlamini",
		Email:    "sipho@bank.example",
		Password: "Emp!0yee#1",
	}); err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	res, err := svc.LoginEmployee(ctx, "sipho@bank.example", "Emp!0yee#1")
	if err != nil {
		t.Fatalf("LoginEmployee() error = %v", err)
	}
	if res.Role != domain.RoleEmployee {
		t.Errorf("Role = %q, want employee", res.Role)
	}

	if _, err := svc.LoginEmployee(ctx, "sipho@bank.example", "wrong-Passw0rd!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.LoginEmployee(ctx, "ghost@bank.example", "Emp!0yee#1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: error = %v, want ErrInvalidCredentials", err)
	}
}
