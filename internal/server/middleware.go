package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"payment-portal/backend/internal/csrf"
	"payment-portal/backend/internal/sanitize"
	"payment-portal/backend/internal/security"
	"payment-portal/backend/internal/session/store"
	"payment-portal/backend/internal/telemetry"
	telemetrydomain "payment-portal/backend/internal/telemetry/domain"
)

const bearerPrefix = "bearer "

// maxBodyBytes caps request bodies well above any legitimate portal payload.
const maxBodyBytes = 1 << 20

// requestScope installs the identity slot and the client IP on the request
// context. It must be the outermost middleware.
func requestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := withIdentityHolder(r.Context())
		ctx = WithClientIP(ctx, clientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP returns the client IP from x-forwarded-for, x-real-ip, or the
// remote address.
func clientIP(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); v != "" {
		if i := strings.Index(v, ","); i > 0 {
			v = strings.TrimSpace(v[:i])
		}
		if v != "" {
			return v
		}
	}
	if v := strings.TrimSpace(r.Header.Get("X-Real-Ip")); v != "" {
		return v
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// sanitizeRequest strips operator-style keys from JSON bodies and query
// strings before anything downstream decodes them.
func sanitizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.RawQuery) > 0 {
			r.URL.RawQuery = sanitizeQuery(r.URL.RawQuery)
		}
		if r.Body != nil && r.Body != http.NoBody && isJSONRequest(r) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
			if err != nil {
				writeMessage(w, http.StatusBadRequest, "unreadable request body")
				return
			}
			_ = r.Body.Close()
			if cleaned, ok := sanitizeJSONBody(body); ok {
				body = cleaned
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			r.ContentLength = int64(len(body))
		}
		next.ServeHTTP(w, r)
	})
}

func isJSONRequest(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "" || strings.HasPrefix(ct, "application/json")
}

// sanitizeJSONBody re-encodes the body with operator keys dropped. Returns
// (original, false) when the body is not valid JSON; the handler's decoder
// reports that to the client.
func sanitizeJSONBody(body []byte) ([]byte, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return body, false
	}
	cleaned, err := json.Marshal(sanitize.Keys(v))
	if err != nil {
		return body, false
	}
	return cleaned, true
}

// sanitizeQuery drops query parameters whose names carry operator meaning.
func sanitizeQuery(rawQuery string) string {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return ""
	}
	for key := range values {
		if strings.HasPrefix(key, "$") || strings.Contains(key, ".") {
			delete(values, key)
		}
	}
	return values.Encode()
}

// statusRecorder captures the response status for telemetry.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// telemetryMiddleware emits one event per request, after the handler ran and
// the identity slot was filled.
func telemetryMiddleware(emitter telemetry.EventEmitter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if emitter == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			event := &telemetrydomain.Event{
				EventType:  "http_request",
				Source:     "server",
				Method:     r.Method,
				Route:      route,
				Status:     rec.status,
				DurationMS: time.Since(start).Milliseconds(),
				IP:         ClientIP(r.Context()),
				CreatedAt:  time.Now().UTC(),
			}
			if id, ok := IdentityFrom(r.Context()); ok {
				event.PrincipalID = id.PrincipalID
				event.Role = id.Role
			}
			telemetry.EmitAsync(emitter, r.Context(), event)
		})
	}
}

// csrfMiddleware enforces double-submit verification on unsafe methods. It
// runs before authentication so a forged request is rejected without touching
// credentials.
func csrfMiddleware(guard *csrf.Guard) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if err := guard.Validate(r.Context(), r); err != nil {
				switch {
				case errors.Is(err, csrf.ErrMissingToken),
					errors.Is(err, csrf.ErrTokenMismatch),
					errors.Is(err, csrf.ErrStaleSession):
					writeForbiddenForgery(w)
				default:
					writeInternal(w, err)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authMiddleware resolves the caller's identity: the session cookie wins,
// a bearer token is the fallback. It never rejects; protected routes do that
// via requireAction. A session hit slides the session's expiry.
func authMiddleware(sessions store.Store, tokens *security.TokenProvider, sessionCookie string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
				rec, err := sessions.Read(ctx, c.Value)
				if err == nil && rec != nil {
					_ = sessions.Touch(ctx, rec.ID)
					setIdentity(ctx, Identity{
						PrincipalID: rec.PrincipalID,
						Role:        rec.Role,
						SessionID:   rec.ID,
						Mode:        ModeSession,
					})
					next.ServeHTTP(w, r)
					return
				}
			}
			if token := extractBearer(r); token != "" {
				if principalID, role, err := tokens.Validate(token); err == nil {
					setIdentity(ctx, Identity{
						PrincipalID: principalID,
						Role:        role,
						Mode:        ModeToken,
					})
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractBearer returns the Bearer token from the Authorization header, or ""
// if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
