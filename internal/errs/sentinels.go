// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a request that fails shape validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyExists indicates a unique constraint violation (email or username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized indicates failed authentication: bad credentials,
	// unverified email, or an undecodable session. Deliberately generic.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates an authenticated caller that does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates a confirmation token past its validity window.
	ErrTokenExpired = errors.New("token expired")

	// ErrBadSignature indicates a confirmation token whose MAC does not verify.
	ErrBadSignature = errors.New("bad signature")
)
