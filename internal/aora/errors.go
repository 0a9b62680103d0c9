package aora

import "errors"

// Operation-level error kinds. Every adapter operation fails with exactly
// one of these wrapping the underlying provider cause; none carry retry
// hints.
var (
	ErrAccountCreation = errors.New("account creation failed")
	ErrAuthentication  = errors.New("authentication failed")
	ErrSession         = errors.New("session operation failed")
	ErrQuery           = errors.New("query failed")
	ErrInvalidFileKind = errors.New("invalid file kind")
	ErrUpload          = errors.New("upload failed")
	ErrPreview         = errors.New("preview failed")
)
