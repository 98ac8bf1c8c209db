// Package clients provides HTTP client adapters for downstream services.
package clients

import "errors"

// Client errors represent failures in the HTTP client layer. The ACL layer
// translates them into domain errors.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open and the
	// request was never sent.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrRateLimited is returned when the outbound rate limiter cannot admit
	// the request before the context ends.
	ErrRateLimited = errors.New("rate limited")

	// ErrRequestFailed wraps transport failures: DNS, connection and timeouts.
	ErrRequestFailed = errors.New("request failed")
)
