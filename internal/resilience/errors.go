package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// ServiceUnavailableError marks a 429/503 response from a research or leads
// endpoint. Downstream formatting recognizes it and renders a
// "temporarily unavailable, please restart" message instead of a generic
// failure, so the flow completes with a degraded payload rather than
// dead-ending the chat.
type ServiceUnavailableError struct {
	Service    string
	StatusCode int
	Details    string
}

func (e *ServiceUnavailableError) Error() string {
	msg := e.Service + ": service unavailable"
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

// NewServiceUnavailable wraps a 429/503 outcome for the named service.
func NewServiceUnavailable(service string, statusCode int, details string) *ServiceUnavailableError {
	return &ServiceUnavailableError{Service: service, StatusCode: statusCode, Details: details}
}

// IsServiceUnavailable reports whether the error chain contains a
// ServiceUnavailableError.
func IsServiceUnavailable(err error) bool {
	var sue *ServiceUnavailableError
	return errors.As(err, &sue)
}

// TransientError wraps an error that is safe to retry (e.g., 429, 5xx, network timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError or ServiceUnavailableError, or if it matches common
// transient error patterns (network timeouts, connection resets, DNS failures).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if IsServiceUnavailable(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// IsUnavailableHTTPStatus reports whether the status code is one of the two
// codes the summary and leads endpoints use to signal overload.
func IsUnavailableHTTPStatus(statusCode int) bool {
	return statusCode == 429 || statusCode == 503
}
