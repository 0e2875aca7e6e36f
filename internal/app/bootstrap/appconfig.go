// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, timeouts); AppConfig is everything specific to MentorHub:
// the MongoDB connection, how bearer tokens are verified, and how the
// identity provider's admin API is reached.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Token verification. "oidc" verifies against the issuer's JWKS;
	// "hs256" verifies a shared-secret token, intended for development
	// and tests only.
	AuthMode       string
	OIDCIssuer     string
	OIDCAudience   string
	OIDCJWKSURL    string
	JWTHS256Secret string

	// Subjects granted superuser rights regardless of their stored flag.
	GrootSubjects []string

	// Identity provider admin API (account lifecycle). Authenticated
	// with the OAuth2 client credentials grant.
	IdPBaseURL      string
	IdPTokenURL     string
	IdPClientID     string
	IdPClientSecret string
	IdPScopes       []string
}
