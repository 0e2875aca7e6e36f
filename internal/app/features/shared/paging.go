// internal/app/features/shared/paging.go
package shared

import (
	"net/http"
	"strconv"
)

// Paging reads limit and offset query parameters, clamping limit to the
// given ceiling.
func Paging(r *http.Request, maxLimit int64) (limit, offset int64) {
	limit = maxLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 && n < maxLimit {
			limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}
