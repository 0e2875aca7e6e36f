// internal/app/features/questions/routes.go
package questions

import (
	"github.com/dalemusser/mentorhub/internal/app/policy/access"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /conversations/{conversationID}/questions.
// Editing the graph is superuser territory; answering goes through the
// conversation flow endpoints instead.
func Routes(h *Handler, eng *access.Engine) chi.Router {
	r := chi.NewRouter()
	r.Use(access.Permit(eng, access.Groot()))

	r.Post("/", h.HandleCreate)
	r.Get("/", h.ServeList)
	r.Get("/{questionID}", h.ServeQuestion)
	r.Put("/{questionID}", h.HandleUpdate)
	r.Delete("/{questionID}", h.HandleDelete)

	return r
}
