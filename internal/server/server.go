// Package server wires the portal's HTTP surface: routing, middleware order,
// and the handler set.
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"payment-portal/backend/internal/audit"
	"payment-portal/backend/internal/authz"
	"payment-portal/backend/internal/csrf"
	identityservice "payment-portal/backend/internal/identity/service"
	paymentservice "payment-portal/backend/internal/payment/service"
	"payment-portal/backend/internal/security"
	"payment-portal/backend/internal/session/store"
	"payment-portal/backend/internal/telemetry"
)

// Deps holds the handler and middleware dependencies for the router.
type Deps struct {
	// Auth is the registration/login service.
	Auth *identityservice.AuthService
	// Payments is the payment capture and review service.
	Payments *paymentservice.PaymentService
	// Sessions is the server-side session store.
	Sessions store.Store
	// Tokens validates bearer tokens for cookie-less clients.
	Tokens *security.TokenProvider
	// Authz decides role/action authorization for protected routes.
	Authz authz.Evaluator
	// Audit records security-relevant events. May be nil.
	Audit audit.AuditLogger
	// Emitter receives per-request telemetry. May be nil.
	Emitter telemetry.EventEmitter
	// SessionTTL bounds the session cookie's lifetime.
	SessionTTL time.Duration
	// CookieSecure controls the Secure attribute on all portal cookies.
	CookieSecure bool
	// HealthChecks are the readiness probes for /healthz.
	HealthChecks map[string]HealthCheck
}

// NewRouter builds the portal router. Middleware order matters: the request
// scope and input sanitizer run first, telemetry wraps everything it should
// observe, forgery checks run before credentials are even looked at, and
// identity resolution runs last so handlers and guards see it.
func NewRouter(deps Deps) *mux.Router {
	guard := csrf.NewGuard(deps.Sessions, SessionCookieName, deps.CookieSecure)

	authHandler := NewAuthHandler(deps.Auth, deps.Sessions, guard, deps.Audit, deps.SessionTTL, deps.CookieSecure)
	paymentHandler := NewPaymentHandler(deps.Payments, deps.Audit)
	healthHandler := NewHealthHandler(deps.HealthChecks)

	r := mux.NewRouter()
	r.Use(requestScope)
	r.Use(sanitizeRequest)
	r.Use(telemetryMiddleware(deps.Emitter))
	r.Use(csrfMiddleware(guard))
	r.Use(authMiddleware(deps.Sessions, deps.Tokens, SessionCookieName))

	r.HandleFunc("/healthz", healthHandler.Ready).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register/customer", authHandler.RegisterCustomer).Methods(http.MethodPost)
	api.HandleFunc("/auth/register/employee", authHandler.RegisterEmployee).Methods(http.MethodPost)
	api.HandleFunc("/auth/login/customer", authHandler.LoginCustomer).Methods(http.MethodPost)
	api.HandleFunc("/auth/login/employee", authHandler.LoginEmployee).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/csrf-token", authHandler.CSRFToken).Methods(http.MethodGet)
	api.HandleFunc("/auth/ping", requireAction(deps.Authz, authz.ActionPing, authHandler.Ping)).Methods(http.MethodGet)

	api.HandleFunc("/payments", requireAction(deps.Authz, authz.ActionPaymentCreate, paymentHandler.Submit)).Methods(http.MethodPost)
	api.HandleFunc("/payments", requireAction(deps.Authz, authz.ActionPaymentList, paymentHandler.List)).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}/status", requireAction(deps.Authz, authz.ActionPaymentStatus, paymentHandler.UpdateStatus)).Methods(http.MethodPatch)

	return r
}

// requireAction guards a route: the request must be authenticated and the
// caller's role must be allowed to perform action.
func requireAction(evaluator authz.Evaluator, action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok {
			writeUnauthenticated(w)
			return
		}
		allowed, err := evaluator.Allow(r.Context(), id.Role, action)
		if err != nil {
			writeInternal(w, err)
			return
		}
		if !allowed {
			writeForbidden(w)
			return
		}
		next(w, r)
	}
}
