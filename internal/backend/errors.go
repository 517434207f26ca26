package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

// Error kinds a provider failure is classified into. Match with errors.Is.
var (
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrInvalidResponse     = errors.New("invalid response")
	ErrAuthFailure         = errors.New("authentication failure")
)

// Kind returns a short label for the error's kind, for logs and metric attributes
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrAuthFailure):
		return "auth_failure"
	case errors.Is(err, ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	default:
		return "other"
	}
}

// classify wraps an SDK error with the kind it belongs to
func classify(backend string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", backend, err)
	}

	if status, ok := statusCode(err); ok {
		switch {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return fmt.Errorf("%s: %w: %w", backend, ErrAuthFailure, err)
		case status == http.StatusRequestTimeout ||
			status == http.StatusConflict ||
			status == http.StatusTooManyRequests ||
			status >= http.StatusInternalServerError:
			return fmt.Errorf("%s: %w: %w", backend, ErrProviderUnavailable, err)
		default:
			return fmt.Errorf("%s: %w", backend, err)
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%s: %w: %w", backend, ErrInvalidResponse, err)
	}

	// No HTTP status means the request never got an answer: DNS, dial, TLS, deadline.
	return fmt.Errorf("%s: %w: %w", backend, ErrProviderUnavailable, err)
}

func statusCode(err error) (int, bool) {
	var oe *openai.Error
	if errors.As(err, &oe) {
		return oe.StatusCode, true
	}
	var ae *anthropic.Error
	if errors.As(err, &ae) {
		return ae.StatusCode, true
	}
	return 0, false
}

func invalidResponse(backend, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", backend, ErrInvalidResponse, fmt.Sprintf(format, args...))
}
