// internal/app/features/shared/errors.go
package shared

import (
	"errors"

	"github.com/dalemusser/mentorhub/internal/app/system/apierr"
	"go.mongodb.org/mongo-driver/mongo"
)

// StoreError maps a store failure to the API error taxonomy: a missing
// document becomes a typed not-found for the entity, anything else a
// backend error. Errors already carrying a kind pass through unchanged.
func StoreError(entity string, err error) error {
	if err == nil {
		return nil
	}
	var typed *apierr.Error
	if errors.As(err, &typed) {
		return err
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apierr.NotFound(entity)
	}
	return apierr.Backend(err)
}
