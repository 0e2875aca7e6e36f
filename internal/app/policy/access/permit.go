// internal/app/policy/access/permit.go
package access

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/system/apierr"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Permit is the request-authorization middleware: it pulls the resource
// identifiers out of the route parameters (userID, groupID,
// conversationID, reportID) and runs the engine with the declared
// context. A missing principal is a 401; a deny renders as 403 and a
// missing referenced group as 404 through the apierr mapping.
func Permit(eng *Engine, ac Context) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.CurrentPrincipal(r)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"code":    "unauthorized",
					"message": "provide a valid bearer token",
				})
				return
			}

			params := Params{
				UserID:         chi.URLParam(r, "userID"),
				GroupID:        chi.URLParam(r, "groupID"),
				ConversationID: chi.URLParam(r, "conversationID"),
				ReportID:       chi.URLParam(r, "reportID"),
			}
			if err := eng.Authorize(r.Context(), p, ac, params); err != nil {
				apierr.Write(w, eng.log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
