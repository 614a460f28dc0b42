package server

import "context"

// AuthMode says which credential authenticated the request.
type AuthMode string

const (
	ModeSession AuthMode = "session"
	ModeToken   AuthMode = "token"
)

// Identity is the resolved caller of a request.
type Identity struct {
	PrincipalID string
	Role        string
	SessionID   string
	Mode        AuthMode
}

type contextKey struct{ name string }

var (
	identityKey = contextKey{"identity"}
	clientIPKey = contextKey{"client_ip"}
)

// withIdentityHolder installs an empty, fillable identity slot. The auth
// middleware fills it in place so middleware installed earlier in the chain
// (telemetry) can still read the resolved identity after the handler ran.
func withIdentityHolder(ctx context.Context) context.Context {
	return context.WithValue(ctx, identityKey, &Identity{})
}

// setIdentity fills the request's identity slot. No-op without a holder.
func setIdentity(ctx context.Context, id Identity) {
	if holder, ok := ctx.Value(identityKey).(*Identity); ok {
		*holder = id
	}
}

// IdentityFrom returns the request identity and true when the request was
// authenticated.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	holder, ok := ctx.Value(identityKey).(*Identity)
	if !ok || holder.PrincipalID == "" {
		return Identity{}, false
	}
	return *holder, true
}

// WithClientIP returns a context carrying the client IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the client IP from context, or "unknown".
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
