// internal/app/system/apierr/apierr.go

// Package apierr defines the error taxonomy every handler and policy in
// the app speaks: NotAllowed, EntityNotFound, ImproperPayload, and
// BackendError. Each error carries a stable machine-readable code and a
// human message; internal detail (wrapped causes, collaborator error
// text) never reaches the caller.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Kind classifies an Error for status mapping.
type Kind int

const (
	// KindBackend is the default for unexpected collaborator failures.
	KindBackend Kind = iota
	// KindNotAllowed is an authorization denial. Fail-closed paths end here.
	KindNotAllowed
	// KindNotFound is a missing group/question/option/attribute/etc.
	KindNotFound
	// KindBadPayload is malformed input caught before domain logic runs.
	KindBadPayload
)

// Error is the one error type the HTTP layer renders.
type Error struct {
	Kind    Kind
	Code    string // stable machine-readable code, e.g. "not_allowed"
	Message string // human-readable, safe to show callers
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Status maps the kind onto an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindNotAllowed:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindBadPayload:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// NotAllowed is the deny result of an authorization decision.
func NotAllowed(msg string) *Error {
	if msg == "" {
		msg = "not allowed"
	}
	return &Error{Kind: KindNotAllowed, Code: "not_allowed", Message: msg}
}

// NotFound reports a missing entity by name, e.g. NotFound("group").
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Code: "entity_not_found", Message: entity + " not found"}
}

// BadPayload reports malformed input.
func BadPayload(msg string) *Error {
	return &Error{Kind: KindBadPayload, Code: "improper_payload", Message: msg}
}

// Backend wraps an unexpected collaborator failure. The cause is kept for
// logs but never serialized to the caller.
func Backend(cause error) *Error {
	return &Error{Kind: KindBackend, Code: "backend_error", Message: "internal error", cause: cause}
}

// Backendf is Backend with a formatted cause.
func Backendf(format string, args ...any) *Error {
	return Backend(fmt.Errorf(format, args...))
}

// From normalizes any error into *Error, defaulting to Backend.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Backend(err)
}

// KindOf returns the kind an error would render as.
func KindOf(err error) Kind { return From(err).Kind }

// IsNotFound reports whether err renders as EntityNotFound.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsNotAllowed reports whether err renders as NotAllowed.
func IsNotAllowed(err error) bool { return KindOf(err) == KindNotAllowed }

// body is the JSON error envelope.
type body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Write renders err as the JSON error envelope with the mapped status.
// Backend errors are logged with their cause; other kinds are expected
// outcomes and logged at debug only.
func Write(w http.ResponseWriter, logger *zap.Logger, err error) {
	e := From(err)
	if logger != nil {
		if e.Kind == KindBackend {
			logger.Error("request failed", zap.String("code", e.Code), zap.Error(e))
		} else {
			logger.Debug("request rejected", zap.String("code", e.Code), zap.String("message", e.Message))
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status())
	_ = json.NewEncoder(w).Encode(body{Code: e.Code, Message: e.Message})
}
