// internal/testutil/http.go
package testutil

import (
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/system/auth"
)

// AsUser attaches a plain principal with the given subject id.
func AsUser(r *http.Request, id string) *http.Request {
	return auth.WithTestPrincipal(r, &auth.Principal{ID: id, Name: "Test User " + id})
}

// AsGroot attaches a superuser principal.
func AsGroot(r *http.Request) *http.Request {
	return auth.WithTestPrincipal(r, &auth.Principal{ID: "groot", Name: "Groot", Groot: true})
}
