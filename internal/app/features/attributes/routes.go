// internal/app/features/attributes/routes.go
package attributes

import (
	"github.com/dalemusser/mentorhub/internal/app/policy/access"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, eng *access.Engine) chi.Router {
	r := chi.NewRouter()

	// Definitions are readable by any signed-in caller; conversations
	// reference them by id, so mentors need to browse them.
	r.With(auth.RequirePrincipal).Get("/", h.ServeList)
	r.With(auth.RequirePrincipal).Get("/{attributeID}", h.ServeAttribute)

	r.With(access.Permit(eng, access.Groot())).Post("/", h.HandleCreate)
	r.With(access.Permit(eng, access.Groot())).Put("/{attributeID}", h.HandleUpdate)
	r.With(access.Permit(eng, access.Groot())).Delete("/{attributeID}", h.HandleDelete)

	return r
}
