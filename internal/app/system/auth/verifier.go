// internal/app/system/auth/verifier.go
package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields this app reads out of a verified bearer token.
type Claims struct {
	Subject string
	Issuer  string
	Email   string
	Name    string
}

// Verifier validates a bearer token and returns its claims. The identity
// provider owns token issuance and cryptography; this side only verifies.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// OIDCVerifier validates tokens against an OIDC provider's JWKS.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the provider configuration from the issuer URL.
func NewOIDCVerifier(ctx context.Context, issuerURL, audience string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider discovery: %w", err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: audience})}, nil
}

// NewOIDCVerifierFromJWKS builds a verifier from an explicit JWKS URL,
// for providers without a discovery document.
func NewOIDCVerifierFromJWKS(ctx context.Context, jwksURL, issuerURL, audience string) *OIDCVerifier {
	keySet := oidc.NewRemoteKeySet(ctx, jwksURL)
	return &OIDCVerifier{verifier: oidc.NewVerifier(issuerURL, keySet, &oidc.Config{ClientID: audience})}
}

// Verify checks the token's signature, issuer, audience, and expiry.
func (v *OIDCVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	var raw map[string]interface{}
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	claims := &Claims{Subject: idToken.Subject, Issuer: idToken.Issuer}
	if email, ok := raw["email"].(string); ok {
		claims.Email = email
	}
	if name, ok := raw["name"].(string); ok {
		claims.Name = name
	}
	return claims, nil
}

// HS256Verifier validates tokens signed with a shared secret. Intended for
// local development and tests, not production.
type HS256Verifier struct {
	secret []byte
}

// NewHS256Verifier creates a shared-secret verifier.
func NewHS256Verifier(secret string) (*HS256Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("HS256 secret is required")
	}
	return &HS256Verifier{secret: []byte(secret)}, nil
}

// Verify parses and validates an HS256-signed token.
func (v *HS256Verifier) Verify(_ context.Context, token string) (*Claims, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}
	sub, _ := mc["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("token missing sub claim")
	}

	claims := &Claims{Subject: sub}
	if iss, ok := mc["iss"].(string); ok {
		claims.Issuer = iss
	}
	if email, ok := mc["email"].(string); ok {
		claims.Email = email
	}
	if name, ok := mc["name"].(string); ok {
		claims.Name = name
	}
	return claims, nil
}
