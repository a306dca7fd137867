// Package apperr defines the typed error taxonomy shared by all services.
// Handlers map these to HTTP status codes via pkg/response; services never
// construct transport-level responses themselves.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an application error.
type Kind int

const (
	// KindAuth means the caller's identity is missing or invalid.
	KindAuth Kind = iota
	// KindForbidden means the caller is identified but access is denied.
	// Used uniformly for "no active membership" denials so that organizations
	// the caller cannot see are indistinguishable from ones that do not exist.
	KindForbidden
	// KindValidation covers malformed or conflicting domain input: duplicate
	// slugs and keys, bad timestamps, membership preconditions.
	KindValidation
	// KindNotFound means the requested resource does not exist in the caller's
	// active organization. Cross-tenant resources report this same kind.
	KindNotFound
	// KindConflict is reserved for identity-level uniqueness violations,
	// e.g. a duplicate account email.
	KindConflict
)

// Error is a classified application error with optional per-field details.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]string
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Details))
	for k, v := range e.Details {
		parts = append(parts, k+": "+v)
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

// Auth returns a KindAuth error.
func Auth(msg string) *Error {
	return &Error{Kind: KindAuth, Message: msg}
}

// Forbidden returns a KindForbidden error.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Validation returns a KindValidation error with field details.
func Validation(details map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Details: details}
}

// NotFound returns a KindNotFound error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict returns a KindConflict error.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// As unwraps err into an *Error if it is one.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
