// internal/app/features/conversations/routes.go
package conversations

import (
	"github.com/dalemusser/mentorhub/internal/app/policy/access"
	"github.com/go-chi/chi/v5"
)

// Routes wires the conversation surface. The questions subrouter edits
// the graph and is mounted under each conversation.
func Routes(h *Handler, questionRoutes chi.Router, eng *access.Engine) chi.Router {
	r := chi.NewRouter()

	// Definitions are superuser territory; running them is opened per
	// group through conversation grants.
	r.With(access.Permit(eng, access.Groot())).Post("/", h.HandleCreate)
	r.With(access.Permit(eng, access.Groot())).Get("/", h.ServeList)

	r.Route("/{conversationID}", func(cr chi.Router) {
		run := access.ForConversation()

		cr.With(access.Permit(eng, run)).Get("/", h.ServeConversation)
		cr.With(access.Permit(eng, access.Groot())).Put("/", h.HandleUpdate)
		cr.With(access.Permit(eng, access.Groot())).Delete("/", h.HandleDelete)

		cr.With(access.Permit(eng, run)).Get("/first", h.ServeFirst)
		cr.With(access.Permit(eng, run)).Post("/questions/{questionID}/answer", h.HandleAnswer)

		cr.Mount("/questions", questionRoutes)
	})

	return r
}
