// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/mentorhub/internal/app/policy/access"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, eng *access.Engine) chi.Router {
	r := chi.NewRouter()

	r.With(access.Permit(eng, access.Groot())).Post("/", h.HandleCreate)
	r.With(access.Permit(eng, access.Groot())).Get("/", h.ServeList)

	// Joining only needs a signed-in caller; membership comes from the code.
	r.With(auth.RequirePrincipal).Post("/join", h.HandleJoin)

	r.Route("/{groupID}", func(gr chi.Router) {
		manage := access.ForGroup(models.RoleSupermentor)

		gr.With(access.Permit(eng, access.ForGroup(models.RoleParticipant))).Get("/", h.ServeGroup)
		gr.With(access.Permit(eng, manage)).Put("/", h.HandleUpdate)
		gr.With(access.Permit(eng, access.Groot())).Delete("/", h.HandleDelete)

		gr.With(access.Permit(eng, manage)).Post("/code", h.HandleRotateCode)

		gr.With(access.Permit(eng, manage)).Put("/participants", h.HandleSetParticipant)
		gr.With(access.Permit(eng, manage)).Delete("/participants/{userID}", h.HandleRemoveParticipant)

		gr.With(access.Permit(eng, manage)).Put("/conversations/{conversationID}", h.HandleAssignConversation)
		gr.With(access.Permit(eng, manage)).Put("/reports/{reportID}", h.HandleAssignReport)
	})

	return r
}
