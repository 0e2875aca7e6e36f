// internal/app/features/reports/routes.go
package reports

import (
	"github.com/dalemusser/mentorhub/internal/app/policy/access"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, eng *access.Engine) chi.Router {
	r := chi.NewRouter()

	r.With(access.Permit(eng, access.Groot())).Post("/", h.HandleCreate)
	r.With(access.Permit(eng, access.Groot())).Get("/", h.ServeList)

	r.Route("/{reportID}", func(rr chi.Router) {
		view := access.ForReport()

		rr.With(access.Permit(eng, view)).Get("/", h.ServeReport)
		rr.With(access.Permit(eng, access.Groot())).Put("/", h.HandleUpdate)
		rr.With(access.Permit(eng, access.Groot())).Delete("/", h.HandleDelete)

		// Rendering for a user also requires the target to share a group
		// that grants the report to the caller's role.
		rr.With(access.Permit(eng, view)).Get("/users/{userID}", h.ServeForUser)
	})

	return r
}
