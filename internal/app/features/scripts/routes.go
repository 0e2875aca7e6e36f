// internal/app/features/scripts/routes.go
package scripts

import (
	"github.com/dalemusser/mentorhub/internal/app/policy/access"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes keeps script definitions superuser-only. Running a script is
// also open to a caller targeting themselves; the handler enforces the
// target because it lives in the payload, not the route.
func Routes(h *Handler, eng *access.Engine) chi.Router {
	r := chi.NewRouter()

	groot := access.Permit(eng, access.Groot())

	r.With(groot).Post("/", h.HandleCreate)
	r.With(groot).Get("/", h.ServeList)
	r.With(groot).Get("/{scriptID}", h.ServeScript)
	r.With(groot).Put("/{scriptID}", h.HandleUpdate)
	r.With(groot).Delete("/{scriptID}", h.HandleDelete)
	r.With(auth.RequirePrincipal).Post("/{scriptID}/run", h.HandleRun)

	return r
}
