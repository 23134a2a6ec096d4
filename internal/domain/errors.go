package domain

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	ErrEmptyCollection      = errors.New("collection id cannot be empty")
	ErrNoCollections        = errors.New("no collections configured")
	ErrUnknownCollection    = errors.New("collection is not configured")
	ErrCorruptCheckpoint    = errors.New("checkpoint state is unreadable")
	ErrOffsetRegression     = errors.New("checkpoint offset cannot move backwards")
	ErrCollectionCompleted  = errors.New("collection already completed")
	ErrTransport            = errors.New("transport error")
	ErrRateLimitExhausted   = errors.New("rate limit retries exhausted")
	ErrMalformedPage        = errors.New("malformed page response")
	ErrMalformedRecord      = errors.New("malformed raw record")
	ErrInvalidPageSize      = errors.New("page size must be positive")
	ErrInvalidWorkers       = errors.New("transform workers must be positive")
	ErrUnknownStore         = errors.New("unknown checkpoint store")
	ErrUnsupportedConfigExt = errors.New("unsupported config file extension")
	ErrConfigExists         = errors.New("config file already exists")
)

// HTTPError is a non-success response from the remote API.
type HTTPError struct {
	Body       string
	StatusCode int
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}
