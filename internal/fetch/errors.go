package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for fetch failures.
var (
	ErrUnreachable  = errors.New("page unreachable")
	ErrTimeout      = errors.New("page fetch timeout")
	ErrBadStatus    = errors.New("page returned error status")
	ErrRender       = errors.New("page render failed")
	ErrBodyTooLarge = errors.New("page body too large")
)

// Error is returned by Fetcher.Fetch for every failure.
type Error struct {
	Method     Method
	URL        string
	StatusCode int // zero unless the server answered with a non-2xx status
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %w", ErrUnreachable, err)
}
