package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"payment-portal/backend/internal/audit"
	"payment-portal/backend/internal/csrf"
	identityservice "payment-portal/backend/internal/identity/service"
	"payment-portal/backend/internal/sanitize"
	"payment-portal/backend/internal/session/store"
)

// SessionCookieName is the session id cookie.
const SessionCookieName = "sid"

// AuthHandler serves registration, login, logout, and the CSRF token
// endpoint.
type AuthHandler struct {
	auth       *identityservice.AuthService
	sessions   store.Store
	guard      *csrf.Guard
	audit      audit.AuditLogger
	sessionTTL time.Duration
	secure     bool
}

// NewAuthHandler returns an AuthHandler. auditLogger may be nil.
func NewAuthHandler(auth *identityservice.AuthService, sessions store.Store, guard *csrf.Guard, auditLogger audit.AuditLogger, sessionTTL time.Duration, secure bool) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, guard: guard, audit: auditLogger, sessionTTL: sessionTTL, secure: secure}
}

type registerCustomerRequest struct {
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	IDNumber      string `json:"idNumber"`
	AccountNumber string `json:"accountNumber"`
}

// RegisterCustomer handles POST /api/auth/register/customer.
func (h *AuthHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req registerCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.auth.RegisterCustomer(r.Context(), identityservice.RegisterCustomerInput{
		FullName:      sanitize.Field(req.FullName),
		Email:         sanitize.Field(req.Email),
		Password:      req.Password,
		IDNumber:      sanitize.Field(req.IDNumber),
		AccountNumber: sanitize.Field(req.AccountNumber),
	})
	if err != nil {
		var verr *identityservice.ValidationError
		switch {
		case errors.As(err, &verr):
			writeValidationFailed(w, verr.Fields)
		case errors.Is(err, identityservice.ErrCustomerExists):
			writeConflict(w, "customer with these details already exists")
		default:
			writeInternal(w, err)
		}
		return
	}
	h.logAudit(r, c.ID, "customer", audit.ActionRegistration, "auth", "")
	writeMessage(w, http.StatusCreated, "customer registered successfully")
}

type registerEmployeeRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterEmployee handles POST /api/auth/register/employee.
func (h *AuthHandler) RegisterEmployee(w http.ResponseWriter, r *http.Request) {
	var req registerEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e, err := h.auth.RegisterEmployee(r.Context(), identityservice.RegisterEmployeeInput{
		FullName: sanitize.Field(req.FullName),
		Email:    sanitize.Field(req.Email),
		Password: req.Password,
	})
	if err != nil {
		var verr *identityservice.ValidationError
		switch {
		case errors.As(err, &verr):
			writeValidationFailed(w, verr.Fields)
		case errors.Is(err, identityservice.ErrEmailInUse):
			writeConflict(w, "email already in use")
		default:
			writeInternal(w, err)
		}
		return
	}
	h.logAudit(r, e.ID, "employee", audit.ActionRegistration, "auth", "")
	writeMessage(w, http.StatusCreated, "employee registered successfully")
}

type loginCustomerRequest struct {
	Email         string `json:"email"`
	AccountNumber string `json:"accountNumber"`
	Password      string `json:"password"`
}

type loginEmployeeRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LoginCustomer handles POST /api/auth/login/customer.
func (h *AuthHandler) LoginCustomer(w http.ResponseWriter, r *http.Request) {
	var req loginCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.auth.LoginCustomer(r.Context(), sanitize.Field(req.Email), sanitize.Field(req.AccountNumber), req.Password)
	h.finishLogin(w, r, res, err)
}

// LoginEmployee handles POST /api/auth/login/employee.
func (h *AuthHandler) LoginEmployee(w http.ResponseWriter, r *http.Request) {
	var req loginEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.auth.LoginEmployee(r.Context(), sanitize.Field(req.Email), req.Password)
	h.finishLogin(w, r, res, err)
}

// finishLogin establishes the authenticated state after a credential check:
// the session id is rotated so a pre-login cookie never survives
// authentication, a fresh CSRF token is bound to the new session, and the
// bearer token goes in the body for cookie-less clients.
func (h *AuthHandler) finishLogin(w http.ResponseWriter, r *http.Request, res *identityservice.LoginResult, err error) {
	if err != nil {
		if errors.Is(err, identityservice.ErrInvalidCredentials) {
			h.logAudit(r, "", "", audit.ActionLoginFailure, "auth", "")
			writeInvalidCredentials(w)
			return
		}
		writeInternal(w, err)
		return
	}

	oldSID := ""
	if c, err := r.Cookie(SessionCookieName); err == nil {
		oldSID = c.Value
	}
	rec, err := h.sessions.Regenerate(r.Context(), oldSID, res.PrincipalID, string(res.Role))
	if err != nil {
		// Session mode is unavailable; the bearer token still works, so the
		// login succeeds without a cookie.
		log.Printf("auth: session create failed, issuing token only: %v", err)
		h.logAudit(r, res.PrincipalID, string(res.Role), audit.ActionLoginSuccess, "auth", `{"mode":"token"}`)
		writeJSON(w, http.StatusOK, loginResponse{Token: res.Token, Role: string(res.Role), ExpiresAt: res.ExpiresAt})
		return
	}

	token, err := csrf.NewToken()
	if err != nil {
		writeInternal(w, err)
		return
	}
	if err := h.sessions.SetCSRFToken(r.Context(), rec.ID, token); err != nil {
		writeInternal(w, err)
		return
	}
	h.setSessionCookie(w, rec.ID)
	h.guard.SetCookie(w, token)

	h.logAudit(r, res.PrincipalID, string(res.Role), audit.ActionLoginSuccess, "auth", `{"mode":"session"}`)
	writeJSON(w, http.StatusOK, loginResponse{Token: res.Token, Role: string(res.Role), ExpiresAt: res.ExpiresAt})
}

// Logout handles POST /api/auth/logout. Idempotent: always 200, even with no
// live session. Bearer tokens cannot be revoked; clients must discard them.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		if err := h.sessions.Destroy(r.Context(), c.Value); err != nil {
			log.Printf("auth: session destroy failed: %v", err)
		}
	}
	if id, ok := IdentityFrom(r.Context()); ok {
		h.logAudit(r, id.PrincipalID, id.Role, audit.ActionLogout, "auth", "")
	}
	h.clearSessionCookie(w)
	h.guard.ClearCookie(w)
	writeMessage(w, http.StatusOK, "logged out")
}

// CSRFToken handles GET /api/auth/csrf-token.
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.guard.Issue(r.Context(), w, r)
	if err != nil {
		writeInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

// Ping handles GET /api/auth/ping: a cheap authenticated probe that reports
// the caller's role.
func (h *AuthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "role": id.Role})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		Secure:   h.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   h.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) logAudit(r *http.Request, actorID, role, action, resource, metadata string) {
	if h.audit == nil {
		return
	}
	h.audit.LogEvent(r.Context(), actorID, role, action, resource, metadata)
}
