package backend

import "errors"

var (
	// ErrUnauthorized indicates no session is active or the provider
	// rejected the presented credential.
	ErrUnauthorized = errors.New("backend: unauthorized")
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("backend: not found")
	// ErrConflict indicates the attempted write would violate a uniqueness
	// constraint.
	ErrConflict = errors.New("backend: conflict")
	// ErrUnavailable indicates the provider could not be reached or
	// answered with a server-side failure.
	ErrUnavailable = errors.New("backend: unavailable")
)
