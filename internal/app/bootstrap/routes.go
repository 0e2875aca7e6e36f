// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	attributesfeature "github.com/dalemusser/mentorhub/internal/app/features/attributes"
	conversationsfeature "github.com/dalemusser/mentorhub/internal/app/features/conversations"
	groupsfeature "github.com/dalemusser/mentorhub/internal/app/features/groups"
	healthfeature "github.com/dalemusser/mentorhub/internal/app/features/health"
	questionsfeature "github.com/dalemusser/mentorhub/internal/app/features/questions"
	reportsfeature "github.com/dalemusser/mentorhub/internal/app/features/reports"
	scriptsfeature "github.com/dalemusser/mentorhub/internal/app/features/scripts"
	usersfeature "github.com/dalemusser/mentorhub/internal/app/features/users"
	"github.com/dalemusser/mentorhub/internal/app/flow"
	"github.com/dalemusser/mentorhub/internal/app/policy/access"
	attrstore "github.com/dalemusser/mentorhub/internal/app/store/attributes"
	convstore "github.com/dalemusser/mentorhub/internal/app/store/conversations"
	groupstore "github.com/dalemusser/mentorhub/internal/app/store/groups"
	questionstore "github.com/dalemusser/mentorhub/internal/app/store/questions"
	reportstore "github.com/dalemusser/mentorhub/internal/app/store/reports"
	scriptstore "github.com/dalemusser/mentorhub/internal/app/store/scripts"
	userattrstore "github.com/dalemusser/mentorhub/internal/app/store/userattrs"
	userstore "github.com/dalemusser/mentorhub/internal/app/store/users"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/idp"
	"github.com/dalemusser/mentorhub/internal/app/system/render"
	scriptengine "github.com/dalemusser/mentorhub/internal/app/system/scripts"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newVerifier(appCfg AppConfig) (auth.Verifier, error) {
	if appCfg.AuthMode == "hs256" {
		return auth.NewHS256Verifier(appCfg.JWTHS256Secret)
	}
	if appCfg.OIDCJWKSURL != "" {
		return auth.NewOIDCVerifierFromJWKS(context.Background(), appCfg.OIDCJWKSURL, appCfg.OIDCIssuer, appCfg.OIDCAudience), nil
	}
	return auth.NewOIDCVerifier(context.Background(), appCfg.OIDCIssuer, appCfg.OIDCAudience)
}

func newIdP(appCfg AppConfig, logger *zap.Logger) (idp.Manager, error) {
	if appCfg.IdPBaseURL == "" {
		logger.Warn("idp_base_url not set; account lifecycle endpoints will fail")
		return idp.Unconfigured{}, nil
	}
	return idp.NewClient(context.Background(), idp.Config{
		BaseURL:      appCfg.IdPBaseURL,
		TokenURL:     appCfg.IdPTokenURL,
		ClientID:     appCfg.IdPClientID,
		ClientSecret: appCfg.IdPClientSecret,
		Scopes:       appCfg.IdPScopes,
	})
}

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
// Every API route sits behind LoadPrincipal (token to principal) and a
// per-route Permit declaring who may call it.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	users := userstore.New(db)
	groups := groupstore.New(db)
	conversations := convstore.New(db)
	questions := questionstore.New(db)
	attributes := attrstore.New(db)
	userAttrs := userattrstore.New(db)
	scripts := scriptstore.New(db)
	reports := reportstore.New(db)

	verifier, err := newVerifier(appCfg)
	if err != nil {
		logger.Error("token verifier init failed", zap.Error(err))
		return nil, err
	}
	authenticator := auth.NewAuthenticator(verifier, users, appCfg.GrootSubjects, logger)

	provider, err := newIdP(appCfg, logger)
	if err != nil {
		logger.Error("identity provider client init failed", zap.Error(err))
		return nil, err
	}

	engine := access.NewEngine(groups, logger)

	scriptEngine := scriptengine.NewEngine(scripts, userAttrs, userAttrs, logger)
	renderer := render.New(users, userAttrs)
	runner := flow.NewRunner(questions, userAttrs, scriptEngine, renderer, logger)

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators.
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))

	r.Group(func(api chi.Router) {
		api.Use(authenticator.LoadPrincipal)

		api.Mount("/users", usersfeature.Routes(
			usersfeature.NewHandler(users, groups, conversations, userAttrs, provider, logger), engine))
		api.Mount("/groups", groupsfeature.Routes(
			groupsfeature.NewHandler(groups, users, logger), engine))
		api.Mount("/conversations", conversationsfeature.Routes(
			conversationsfeature.NewHandler(conversations, questions, runner, logger),
			questionsfeature.Routes(questionsfeature.NewHandler(questions, logger), engine),
			engine))
		api.Mount("/attributes", attributesfeature.Routes(
			attributesfeature.NewHandler(attributes, logger), engine))
		api.Mount("/scripts", scriptsfeature.Routes(
			scriptsfeature.NewHandler(scripts, scriptEngine, logger), engine))
		api.Mount("/reports", reportsfeature.Routes(
			reportsfeature.NewHandler(reports, users, userAttrs, logger), engine))
	})

	return r, nil
}
