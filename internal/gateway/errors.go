package gateway

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced to the UI layer. Each class is matchable on its
// own via errors.Is/As so one failure never aborts unrelated feed work.
var (
	ErrNetwork       = errors.New("network error")       // transient, retryable
	ErrLikeFailed    = errors.New("like failed")         // triggers rollback
	ErrCommentFailed = errors.New("comment submit failed")
	ErrValidation    = errors.New("validation error") // rejected locally, never sent
)

// ServerError is a non-2xx response with the server's message attached.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error: status %d", e.Status)
	}
	return fmt.Sprintf("server error: status %d: %s", e.Status, e.Message)
}

func netErr(err error) error {
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
