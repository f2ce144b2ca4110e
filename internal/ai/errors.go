package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// LLM collaborator failures, mapped from transport/HTTP outcomes.
	ErrRateLimited = errors.New("llm rate limited")
	ErrAuthInvalid = errors.New("llm auth invalid")
	ErrUnavailable = errors.New("llm unavailable")
	ErrTimeout     = errors.New("llm timeout")

	// Embedding backend failures. There is no numeric fallback: callers
	// decide between keyword search (query path) and a failed document
	// (ingest path).
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")
	ErrDimensionMismatch    = errors.New("embedding dimension mismatch")
)

// statusError maps an HTTP response status to a typed sentinel.
func statusError(status int, body string) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d: %s", ErrRateLimited, status, body)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", ErrAuthInvalid, status, body)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: status %d: %s", ErrTimeout, status, body)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, status, body)
	}
}

// transportError maps a client-side failure to a typed sentinel. Context
// deadlines and net timeouts surface as ErrTimeout so callers can tell an
// abandoned call from a down backend.
func transportError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
