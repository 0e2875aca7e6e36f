// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for MentorHub. They are
// loaded through WAFFLE's config system: config files, MENTORHUB_*
// environment variables, and command-line flags, with the usual
// precedence (flags > env > files > defaults).
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "mentorhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "auth_mode", Default: "oidc", Desc: "Bearer token verification: 'oidc' or 'hs256' (dev only)"},
	{Name: "oidc_issuer", Default: "", Desc: "OIDC issuer URL (discovery-based verification)"},
	{Name: "oidc_audience", Default: "mentorhub", Desc: "Expected token audience"},
	{Name: "oidc_jwks_url", Default: "", Desc: "Explicit JWKS URL (skips discovery when set)"},
	{Name: "jwt_hs256_secret", Default: "", Desc: "Shared secret for hs256 auth mode"},

	{Name: "groot_subjects", Default: "", Desc: "Comma-separated subjects always treated as superusers"},

	{Name: "idp_base_url", Default: "", Desc: "Identity provider admin API base URL"},
	{Name: "idp_token_url", Default: "", Desc: "OAuth2 token endpoint for the admin API client"},
	{Name: "idp_client_id", Default: "", Desc: "Admin API client id"},
	{Name: "idp_client_secret", Default: "", Desc: "Admin API client secret"},
	{Name: "idp_scopes", Default: "accounts:manage", Desc: "Comma-separated scopes for the admin API client"},
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// LoadConfig loads WAFFLE core config and app-specific config.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MENTORHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		AuthMode:       appValues.String("auth_mode"),
		OIDCIssuer:     appValues.String("oidc_issuer"),
		OIDCAudience:   appValues.String("oidc_audience"),
		OIDCJWKSURL:    appValues.String("oidc_jwks_url"),
		JWTHS256Secret: appValues.String("jwt_hs256_secret"),

		GrootSubjects: splitList(appValues.String("groot_subjects")),

		IdPBaseURL:      appValues.String("idp_base_url"),
		IdPTokenURL:     appValues.String("idp_token_url"),
		IdPClientID:     appValues.String("idp_client_id"),
		IdPClientSecret: appValues.String("idp_client_secret"),
		IdPScopes:       splitList(appValues.String("idp_scopes")),
	}
	return coreCfg, appCfg, nil
}

// ValidateConfig enforces the invariants that would otherwise surface as
// confusing runtime failures: a parsable Mongo URI and a usable token
// verification setup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch appCfg.AuthMode {
	case "oidc":
		if appCfg.OIDCIssuer == "" && appCfg.OIDCJWKSURL == "" {
			return fmt.Errorf("auth_mode oidc requires oidc_issuer or oidc_jwks_url")
		}
	case "hs256":
		if appCfg.JWTHS256Secret == "" {
			return fmt.Errorf("auth_mode hs256 requires jwt_hs256_secret")
		}
		if coreCfg.Env == "prod" {
			return fmt.Errorf("auth_mode hs256 is not allowed in prod")
		}
	default:
		return fmt.Errorf("auth_mode must be 'oidc' or 'hs256', got %q", appCfg.AuthMode)
	}
	return nil
}
