// Package common defines sentinel errors shared by the stores, the token
// service, the authorization guard and the HTTP layer. Callers should match
// them with errors.Is.
package common

import (
	"errors"
	"sort"
	"strings"
)

var (
	// Store errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already registered")
	ErrDuplicateEmail    = errors.New("email already registered")

	// Token errors.
	ErrMalformedToken = errors.New("malformed token")
	ErrExpiredToken   = errors.New("token expired")

	// Guard errors.
	ErrMissingToken       = errors.New("missing token")
	ErrUnknownSubject     = errors.New("unknown token subject")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrValidation = errors.New("validation error")
)

// ValidationError carries per-field constraint violations. It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a violation for field. The first message per field wins.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// OrNil returns e when it holds violations and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
