// Package errs holds the sentinel errors shared by repositories, services
// and handlers. Handlers translate them into HTTP status codes.
package errs

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound: the addressed record does not exist (404).
	ErrNotFound = errors.New("not found")

	// ErrConflict: a unique constraint or state conflict (409).
	ErrConflict = errors.New("conflict")

	// ErrValidation: input failed a domain rule (422).
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized: missing, invalid, expired or revoked credentials (401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInactive: the account exists but its status is not active (403).
	ErrInactive = errors.New("account is not active")

	// ErrForbidden: the caller does not own the resource (403).
	ErrForbidden = errors.New("forbidden")
)

// FieldErrors maps request fields to what is wrong with them. It unwraps to
// ErrValidation.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + f[k]
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (f FieldErrors) Unwrap() error { return ErrValidation }
