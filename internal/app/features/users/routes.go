// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/mentorhub/internal/app/policy/access"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, eng *access.Engine) chi.Router {
	r := chi.NewRouter()

	r.With(access.Permit(eng, access.Groot())).Post("/", h.HandleCreate)
	r.With(access.Permit(eng, access.Groot())).Get("/", h.ServeList)

	r.Route("/{userID}", func(ur chi.Router) {
		view := access.ForUser(models.RoleSelf, models.RoleMentor, models.RoleSupermentor)

		ur.With(access.Permit(eng, view)).Get("/", h.ServeUser)
		ur.With(access.Permit(eng, access.ForUser(models.RoleSelf))).Put("/", h.HandleUpdate)
		ur.With(access.Permit(eng, access.Groot())).Delete("/", h.HandleDelete)

		ur.With(access.Permit(eng, access.ForUser(models.RoleSelf))).Put("/password", h.HandleSetPassword)
		ur.With(access.Permit(eng, access.Groot())).Put("/groot", h.HandleSetGroot)

		ur.With(access.Permit(eng, view)).Get("/conversations", h.ServeConversations)

		ur.With(access.Permit(eng, view)).Get("/attributes", h.ServeAttributes)
		ur.With(access.Permit(eng, view)).Get("/attributes/{attributeID}", h.ServeAttribute)
	})

	return r
}
