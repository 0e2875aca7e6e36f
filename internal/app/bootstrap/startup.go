// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AuthMode == "hs256" {
		logger.Warn("hs256 token verification enabled; use oidc outside development")
	}
	if len(appCfg.GrootSubjects) > 0 {
		logger.Info("superuser allowlist loaded", zap.Int("subjects", len(appCfg.GrootSubjects)))
	}
	return nil
}
