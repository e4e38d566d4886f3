package apperrors

import "errors"

var (
	ErrNotFound                 = errors.New("not found")
	ErrInvalidQuoteFile         = errors.New("invalid quote file")
	ErrRemoteMatcherUnavailable = errors.New("remote matcher unavailable")
	ErrModelRateLookupFailed    = errors.New("model rate lookup failed")
)
