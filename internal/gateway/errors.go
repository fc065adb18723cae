package gateway

import "errors"

// Failure kinds surfaced by gateway operations. Callers match with
// errors.Is; the API layer maps each kind to an HTTP status.
var (
	ErrValidation         = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrServiceUnavailable = errors.New("bot session not ready")
	ErrRemoteOperation    = errors.New("remote operation failed")
	ErrPersistence        = errors.New("could not persist records")
)

func isGatewayError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrRemoteOperation) ||
		errors.Is(err, ErrPersistence)
}
