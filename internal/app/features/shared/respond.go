// internal/app/features/shared/respond.go

// Package shared holds the JSON plumbing common to all feature handlers.
package shared

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/system/apierr"
)

const maxBodyBytes = 1 << 20

// WriteJSON renders v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode parses the request body into v. Unknown fields and oversized
// bodies are rejected so malformed payloads fail loudly instead of
// half-applying.
func Decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apierr.BadPayload("invalid request body: " + err.Error())
	}
	return nil
}
