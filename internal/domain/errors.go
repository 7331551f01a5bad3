// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the operation collided with concurrent state.
var ErrConflict = errors.New("conflict")

// ErrValidation indicates a request failed input validation.
var ErrValidation = errors.New("validation failed")

// ErrUnauthorized indicates a request failed credential verification.
var ErrUnauthorized = errors.New("unauthorized")
