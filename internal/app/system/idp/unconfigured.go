// internal/app/system/idp/unconfigured.go
package idp

import (
	"context"
	"errors"
)

var errUnconfigured = errors.New("identity provider admin API is not configured")

// Unconfigured is the Manager used when no admin API is configured. It
// lets the service start for read-mostly deployments; account lifecycle
// calls fail with a clear error.
type Unconfigured struct{}

func (Unconfigured) CreateAccount(context.Context, string, string, string) (Account, error) {
	return Account{}, errUnconfigured
}

func (Unconfigured) DeleteAccount(context.Context, string) error { return errUnconfigured }

func (Unconfigured) SetPassword(context.Context, string, string) error { return errUnconfigured }
