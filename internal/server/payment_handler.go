package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"payment-portal/backend/internal/audit"
	paymentdomain "payment-portal/backend/internal/payment/domain"
	paymentservice "payment-portal/backend/internal/payment/service"
	"payment-portal/backend/internal/sanitize"
)

// PaymentHandler serves payment capture and the review workflow.
type PaymentHandler struct {
	payments *paymentservice.PaymentService
	audit    audit.AuditLogger
}

// NewPaymentHandler returns a PaymentHandler. auditLogger may be nil.
func NewPaymentHandler(payments *paymentservice.PaymentService, auditLogger audit.AuditLogger) *PaymentHandler {
	return &PaymentHandler{payments: payments, audit: auditLogger}
}

type submitPaymentRequest struct {
	Amount             string `json:"amount"`
	Currency           string `json:"currency"`
	Provider           string `json:"provider"`
	PayeeName          string `json:"payeeName"`
	PayeeAccountNumber string `json:"payeeAccountNumber"`
	SWIFTCode          string `json:"swiftCode"`
}

type paymentResponse struct {
	ID                 string    `json:"id"`
	CustomerID         string    `json:"customerId"`
	Amount             string    `json:"amount"`
	Currency           string    `json:"currency"`
	Provider           string    `json:"provider"`
	PayeeName          string    `json:"payeeName"`
	PayeeAccountNumber string    `json:"payeeAccountNumber"`
	SWIFTCode          string    `json:"swiftCode"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func toPaymentResponse(p *paymentdomain.Payment) paymentResponse {
	return paymentResponse{
		ID:                 p.ID,
		CustomerID:         p.CustomerID,
		Amount:             p.Amount,
		Currency:           p.Currency,
		Provider:           p.Provider,
		PayeeName:          p.PayeeName,
		PayeeAccountNumber: p.PayeeAccountNumber,
		SWIFTCode:          p.SWIFTCode,
		Status:             string(p.Status),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// Submit handles POST /api/payments.
func (h *PaymentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}
	var req submitPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.payments.Submit(r.Context(), id.PrincipalID, paymentservice.SubmitInput{
		Amount:             sanitize.Field(req.Amount),
		Currency:           sanitize.Field(req.Currency),
		Provider:           sanitize.Field(req.Provider),
		PayeeName:          sanitize.Field(req.PayeeName),
		PayeeAccountNumber: sanitize.Field(req.PayeeAccountNumber),
		SWIFTCode:          sanitize.Field(req.SWIFTCode),
	})
	if err != nil {
		var verr *paymentservice.ValidationError
		if errors.As(err, &verr) {
			writeValidationFailed(w, verr.Fields)
			return
		}
		writeInternal(w, err)
		return
	}
	h.logAudit(r, id, audit.ActionPaymentSubmitted, "payments", fmt.Sprintf(`{"paymentId":%q}`, p.ID))
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "payment submitted for verification",
		"payment": toPaymentResponse(p),
	})
}

// List handles GET /api/payments. Without a status filter the pending review
// queue is returned.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	status := paymentdomain.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = paymentdomain.StatusPending
	}
	payments, err := h.payments.List(r.Context(), status)
	if err != nil {
		if errors.Is(err, paymentservice.ErrUnknownStatus) {
			writeMessage(w, http.StatusBadRequest, "unknown payment status")
			return
		}
		writeInternal(w, err)
		return
	}
	out := make([]paymentResponse, len(payments))
	for i, p := range payments {
		out[i] = toPaymentResponse(p)
	}
	writeJSON(w, http.StatusOK, out)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/payments/{id}/status.
func (h *PaymentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}
	paymentID := mux.Vars(r)["id"]
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		writeMessage(w, http.StatusBadRequest, "no status change detected")
		return
	}
	p, err := h.payments.UpdateStatus(r.Context(), paymentID, paymentdomain.Status(sanitize.Field(req.Status)))
	if err != nil {
		switch {
		case errors.Is(err, paymentservice.ErrInvalidPaymentID):
			writeMessage(w, http.StatusBadRequest, "invalid payment id")
		case errors.Is(err, paymentservice.ErrUnknownStatus):
			writeMessage(w, http.StatusBadRequest, "unknown payment status")
		case errors.Is(err, paymentservice.ErrInvalidTransition):
			writeMessage(w, http.StatusBadRequest, "status transition not allowed")
		case errors.Is(err, paymentservice.ErrPaymentNotFound):
			writeNotFound(w, "payment not found")
		default:
			writeInternal(w, err)
		}
		return
	}
	h.logAudit(r, id, audit.ActionPaymentStatusChanged, "payments", fmt.Sprintf(`{"paymentId":%q,"status":%q}`, p.ID, p.Status))
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "payment status updated successfully",
		"payment": toPaymentResponse(p),
	})
}

func (h *PaymentHandler) logAudit(r *http.Request, id Identity, action, resource, metadata string) {
	if h.audit == nil {
		return
	}
	h.audit.LogEvent(r.Context(), id.PrincipalID, id.Role, action, resource, metadata)
}
