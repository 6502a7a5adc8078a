package httpx

import (
	"context"
	"net/http"
	"slices"
)

type contextKey string

const (
	principalKey    contextKey = "principal"
	requestIDKey    contextKey = "requestID"
	requestStateKey contextKey = "requestState"
)

// Principal is the authenticated caller attached by the Guard.
type Principal struct {
	Username string
	Roles    []string
}

func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// PrincipalFrom retrieves the authenticated caller from the request context.
func PrincipalFrom(r *http.Request) (Principal, bool) {
	p, ok := r.Context().Value(principalKey).(Principal)
	return p, ok
}

func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	if st, ok := ctx.Value(requestStateKey).(*requestState); ok {
		st.username = p.Username
	}
	return context.WithValue(ctx, principalKey, p)
}

// RequestIDFrom retrieves the request ID from the request context.
func RequestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// requestState lets inner handlers report back to the access log, which
// wraps them and cannot see contexts derived further down.
type requestState struct {
	username string
}

func contextWithRequestState(ctx context.Context, st *requestState) context.Context {
	return context.WithValue(ctx, requestStateKey, st)
}
