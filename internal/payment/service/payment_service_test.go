package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"payment-portal/backend/internal/payment/domain"
)

type memPaymentRepo struct {
	payments map[string]*domain.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: make(map[string]*domain.Payment)}
}

func (r *memPaymentRepo) Create(_ context.Context, p *domain.Payment) error {
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *memPaymentRepo) GetByID(_ context.Context, id string) (*domain.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memPaymentRepo) List(_ context.Context, status domain.Status) ([]*domain.Payment, error) {
	var out []*domain.Payment
	for _, p := range r.payments {
		if status == "" || p.Status == status {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memPaymentRepo) UpdateStatus(_ context.Context, id string, status domain.Status) error {
	if p, ok := r.payments[id]; ok {
		p.Status = status
	}
	return nil
}

func validSubmitInput() SubmitInput {
	return SubmitInput{
		Amount:             "1500",
		Currency:           "ZAR",
		Provider:           "SWIFT",
		PayeeName:          "Naledi Mokoena",
		PayeeAccountNumber: "987654321",
		SWIFTCode:          "ABSAZAJJ",
	}
}

func TestSubmit(t *testing.T) {
	repo := newMemPaymentRepo()
	svc := NewPaymentService(repo)

	p, err := svc.Submit(context.Background(), "cust-1", validSubmitInput())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if p.Status != domain.StatusPending {
		t.Errorf("Status = %q, want Pending", p.Status)
	}
	if p.CustomerID != "cust-1" {
		t.Errorf("CustomerID = %q, want cust-1", p.CustomerID)
	}
	if _, ok := repo.payments[p.ID]; !ok {
		t.Error("payment not persisted")
	}
}

func TestSubmitAmountValidation(t *testing.T) {
	good := []string{"1", "1500", "0.5", ".25", "0.05", "999999999"}
	bad := []string{"", "0", "00", "01", "-5", "1,500", "1.2345", "1e3", "abc", "1.0.0"}

	for _, amount := range good {
		svc := NewPaymentService(newMemPaymentRepo())
		in := validSubmitInput()
		in.Amount = amount
		if _, err := svc.Submit(context.Background(), "c", in); err != nil {
			t.Errorf("amount %q rejected: %v", amount, err)
		}
	}
	for _, amount := range bad {
		svc := NewPaymentService(newMemPaymentRepo())
		in := validSubmitInput()
		in.Amount = amount
		if _, err := svc.Submit(context.Background(), "c", in); err == nil {
			t.Errorf("amount %q accepted, want validation error", amount)
		}
	}
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SubmitInput)
		field  string
	}{
		{"unsupported currency", func(in *SubmitInput) { in.Currency = "JPY" }, "currency"},
		{"unsupported provider", func(in *SubmitInput) { in.Provider = "SEPA" }, "provider"},
		{"payee name with digits", func(in *SubmitInput) { in.PayeeName = "Payee 99" }, "payeeName"},
		{"payee account too short", func(in *SubmitInput) { in.PayeeAccountNumber = "1234" }, "payeeAccountNumber"},
		{"swift code too short", func(in *SubmitInput) { in.SWIFTCode = "ABSA" }, "swiftCode"},
		{"swift code with symbol", func(in *SubmitInput) { in.SWIFTCode = "ABSAZAJ!" }, "swiftCode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPaymentService(newMemPaymentRepo())
			in := validSubmitInput()
			tt.mutate(&in)

			_, err := svc.Submit(context.Background(), "c", in)
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
		})
	}
}

func TestListFiltersByStatus(t *testing.T) {
	repo := newMemPaymentRepo()
	svc := NewPaymentService(repo)
	ctx := context.Background()

	first, _ := svc.Submit(ctx, "c", validSubmitInput())
	second, _ := svc.Submit(ctx, "c", validSubmitInput())
	if _, err := svc.UpdateStatus(ctx, first.ID, domain.StatusVerified); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	pending, err := svc.List(ctx, domain.StatusPending)
	if err != nil {
		t.Fatalf("List(Pending) error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Errorf("List(Pending) = %v, want only the second payment", pending)
	}

	all, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("List(\"\") error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List(\"\") returned %d payments, want 2", len(all))
	}

	if _, err := svc.List(ctx, domain.Status("Shipped")); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("List(Shipped) error = %v, want ErrUnknownStatus", err)
	}
}

func TestUpdateStatusWorkflow(t *testing.T) {
	type step struct {
		next    domain.Status
		wantErr error
	}
	tests := []struct {
		name  string
		steps []step
	}{
		{"verify then submit", []step{
			{domain.StatusVerified, nil},
			{domain.StatusSubmittedToSWIFT, nil},
		}},
		{"reject is terminal", []step{
			{domain.StatusRejected, nil},
			{domain.StatusVerified, ErrInvalidTransition},
			{domain.StatusSubmittedToSWIFT, ErrInvalidTransition},
		}},
		{"cannot skip verification", []step{
			{domain.StatusSubmittedToSWIFT, ErrInvalidTransition},
		}},
		{"cannot return to pending", []step{
			{domain.StatusVerified, nil},
			{domain.StatusPending, ErrInvalidTransition},
		}},
		{"submitted is terminal", []step{
			{domain.StatusVerified, nil},
			{domain.StatusSubmittedToSWIFT, nil},
			{domain.StatusRejected, ErrInvalidTransition},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPaymentService(newMemPaymentRepo())
			ctx := context.Background()
			p, err := svc.Submit(ctx, "c", validSubmitInput())
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			for i, s := range tt.steps {
				_, err := svc.UpdateStatus(ctx, p.ID, s.next)
				if !errors.Is(err, s.wantErr) {
					t.Fatalf("step %d: UpdateStatus(%s) error = %v, want %v", i, s.next, err, s.wantErr)
				}
			}
		})
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	svc := NewPaymentService(newMemPaymentRepo())
	ctx := context.Background()

	if _, err := svc.UpdateStatus(ctx, "not-a-uuid", domain.StatusVerified); !errors.Is(err, ErrInvalidPaymentID) {
		t.Errorf("malformed id: error = %v, want ErrInvalidPaymentID", err)
	}
	if _, err := svc.UpdateStatus(ctx, "3b241101-e2bb-4255-8caf-4136c566a962", domain.StatusVerified); !errors.Is(err, ErrPaymentNotFound) {
		t.Errorf("missing payment: error = %v, want ErrPaymentNotFound", err)
	}
	p, _ := svc.Submit(ctx, "c", validSubmitInput())
	if _, err := svc.UpdateStatus(ctx, p.ID, domain.Status("Frozen")); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("unknown status: error = %v, want ErrUnknownStatus", err)
	}
}
