package parser

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"podrecon/internal/domain"
)

// RateLimitError indicates a provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// StatusError is a non-success HTTP response from a provider. A 401 or 403
// unwraps to domain.ErrConfiguration.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, truncate(e.Body, 300))
}

func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrConfiguration
	}
	return nil
}

// CheckResponse converts a non-2xx provider response into a StatusError, or
// a RateLimitError for HTTP 429.
func CheckResponse(provider string, resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	err := &StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: string(body)}
	if resp.StatusCode == http.StatusTooManyRequests {
		return NewRateLimitError(provider, err, ParseRetryAfterHeader(resp.Header.Get("Retry-After")))
	}
	return err
}

// UnavailableError reports that every variant of a modality failed.
type UnavailableError struct {
	Modality domain.Modality
	Attempts []domain.ExtractionAttempt
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %s modality, %d attempt(s)", domain.ErrExtractionUnavailable, e.Modality, len(e.Attempts))
}

func (e *UnavailableError) Unwrap() error {
	return domain.ErrExtractionUnavailable
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// ErrMalformedResponse marks a 2xx provider response whose envelope could not
// be read. The attempt is rejected rather than treated as a transport failure.
var ErrMalformedResponse = errors.New("malformed provider response")
