// internal/app/system/auth/principal.go
package auth

import (
	"context"
	"net/http"
)

// Principal is the authenticated caller, constructed once per request from
// the bearer token and immutable for the request's duration. The token
// itself is never persisted.
type Principal struct {
	ID    string // identity-provider subject
	Name  string
	Email string
	Groot bool // superuser: bypasses every authorization rule
}

type ctxKey struct{}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// CurrentPrincipal returns the request's principal and a found flag.
func CurrentPrincipal(r *http.Request) (*Principal, bool) {
	p, ok := r.Context().Value(ctxKey{}).(*Principal)
	return p, ok && p != nil
}

// WithTestPrincipal injects a principal directly, bypassing token
// verification. Test helper only.
func WithTestPrincipal(r *http.Request, p *Principal) *http.Request {
	return r.WithContext(WithPrincipal(r.Context(), p))
}
