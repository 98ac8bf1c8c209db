package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/jokeboard/internal/adapters/clients"
	"github.com/jsamuelsen/jokeboard/internal/domain"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 4 << 10

// ErrorResponse is the error body the joke API returns:
//
//	{"timestamp":"...","status":404,"error":"Not Found","message":"...","path":"/jokes/x"}
type ErrorResponse struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

// GetMessage prefers the detailed message over the status text.
func (e *ErrorResponse) GetMessage() string {
	if e.Message != "" {
		return e.Message
	}

	return e.Error
}

// ParseErrorResponse parses an error body. It returns nil when the body is
// empty, not JSON, or carries no message.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.GetMessage() == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError maps a failed exchange to a domain error. resp may be nil
// when clientErr is set. A 2xx response maps to nil.
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation, entityID string) error {
	if clientErr != nil {
		return mapClientError(clientErr, serviceName, operation)
	}

	if resp == nil {
		return domain.NewUnavailableError(serviceName, "no response received")
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	var errResp *ErrorResponse
	if resp.Body != nil {
		errResp = ParseErrorResponse(resp.Body)
	}

	return mapStatusCode(resp.StatusCode, errResp, serviceName, operation, entityID)
}

func mapClientError(err error, serviceName, operation string) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("circuit breaker open during %s", operation))

	case errors.Is(err, clients.ErrRateLimited):
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("rate limited during %s", operation))

	default:
		return domain.NewUnavailableErrorWithCause(serviceName,
			fmt.Sprintf("%s failed: %v", operation, err), err)
	}
}

func mapStatusCode(status int, errResp *ErrorResponse, serviceName, operation, entityID string) error {
	message := defaultMessageForStatus(status, operation)
	if errResp != nil {
		message = errResp.GetMessage()
	}

	switch {
	case status == http.StatusNotFound:
		return domain.NewNotFoundError("joke", entityID)

	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return domain.NewValidationError("", message)

	case status == http.StatusTooManyRequests:
		return &domain.UnavailableError{Service: serviceName, Reason: "rate limit exceeded", Status: status}

	default:
		return domain.NewUpstreamStatusError(serviceName, status, message)
	}
}

func defaultMessageForStatus(status int, operation string) string {
	switch status {
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusUnauthorized, http.StatusForbidden:
		return "request rejected"
	case http.StatusTooManyRequests:
		return "rate limit exceeded"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	default:
		return fmt.Sprintf("%s failed with status %d", operation, status)
	}
}
