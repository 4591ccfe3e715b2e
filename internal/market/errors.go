package market

import (
	"fmt"
	"time"
)

// NetworkError wraps a transport-level failure. Transient; fetch retries it
// with backoff.
type NetworkError struct {
	Exchange Exchange
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request to %s failed: %v", e.Exchange, e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-success response from a venue. Permanent unless the
// status indicates a server-side failure.
type APIError struct {
	Exchange Exchange
	Endpoint string
	Status   int
	Code     string
	Message  string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s returned status %d (code %s): %s", e.Exchange, e.Endpoint, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s returned status %d: %s", e.Exchange, e.Endpoint, e.Status, e.Message)
}

// Transient reports whether the failure is worth retrying (5xx).
func (e *APIError) Transient() bool { return e.Status >= 500 }

// RateLimitError signals venue throttling. RetryAfter is the server-provided
// delay, or 0 when the venue gave none.
type RateLimitError struct {
	Exchange   Exchange
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Exchange, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Exchange)
}

// SchemaError means a venue response no longer matches the expected shape.
// Never retried and never silently dropped: a contract change must surface.
type SchemaError struct {
	Exchange Exchange
	Field    string
	Reason   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: schema mismatch on %q: %s", e.Exchange, e.Field, e.Reason)
}

// ConfigError is caller-supplied bad input (interval, symbol, time range).
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// FetchError ties a terminal per-symbol failure to its cause.
type FetchError struct {
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// TimeoutError records a per-symbol fetch abandoned at the collection
// deadline. Siblings keep their partial results.
type TimeoutError struct {
	Symbol string
	Err    error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("fetch %s: deadline exceeded", e.Symbol)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
