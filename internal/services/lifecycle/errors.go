package lifecycle

import "errors"

// Sentinel errors returned by lifecycle operations. Handlers translate
// them to HTTP status codes with errors.Is; wrapped messages carry detail.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrDuplicateBid      = errors.New("duplicate bid")
	ErrDuplicateContract = errors.New("duplicate contract")
	ErrDuplicateReview   = errors.New("duplicate review")
	ErrValidation        = errors.New("validation error")
)
