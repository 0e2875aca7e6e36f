// internal/app/system/auth/middleware.go
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ProfileSource looks up the stored profile for a verified subject. The
// users collection mirrors the identity provider; a missing document is
// not an authentication failure (the token is the authority), it just
// means no profile enrichment and no stored groot flag.
type ProfileSource interface {
	Profile(ctx context.Context, subject string) (name, email string, groot bool, found bool, err error)
}

// Authenticator resolves bearer tokens into Principals.
type Authenticator struct {
	verifier Verifier
	profiles ProfileSource
	grootIDs map[string]bool // config-level superuser allowlist
	log      *zap.Logger
}

// NewAuthenticator wires a token verifier with the profile source and the
// configured groot subject allowlist.
func NewAuthenticator(v Verifier, profiles ProfileSource, grootSubjects []string, logger *zap.Logger) *Authenticator {
	ids := make(map[string]bool, len(grootSubjects))
	for _, s := range grootSubjects {
		if s = strings.TrimSpace(s); s != "" {
			ids[s] = true
		}
	}
	return &Authenticator{verifier: v, profiles: profiles, grootIDs: ids, log: logger}
}

// LoadPrincipal verifies the Authorization bearer token, if present, and
// stores the resolved Principal in the request context. Requests without
// a token pass through unauthenticated; RequirePrincipal gates routes
// that need one. An invalid token is rejected immediately with 401.
func (a *Authenticator) LoadPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := a.verifier.Verify(r.Context(), token)
		if err != nil {
			a.log.Debug("bearer token rejected", zap.Error(err))
			writeUnauthorized(w, "invalid_token", "bearer token is invalid or expired")
			return
		}

		p := &Principal{
			ID:    claims.Subject,
			Name:  claims.Name,
			Email: claims.Email,
			Groot: a.grootIDs[claims.Subject],
		}
		if a.profiles != nil {
			name, email, groot, found, err := a.profiles.Profile(r.Context(), claims.Subject)
			if err != nil {
				a.log.Error("profile lookup failed", zap.String("subject", claims.Subject), zap.Error(err))
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if found {
				if name != "" {
					p.Name = name
				}
				if email != "" {
					p.Email = email
				}
				p.Groot = p.Groot || groot
			}
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequirePrincipal rejects requests that did not authenticate.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentPrincipal(r); !ok {
			writeUnauthorized(w, "unauthorized", "provide a valid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeUnauthorized(w http.ResponseWriter, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": code, "message": msg})
}
