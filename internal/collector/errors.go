package collector

import (
	"errors"
	"fmt"
	"net/http"
)

// Class separates caller-side upstream failures from outages.
type Class int

const (
	ClassClient Class = iota
	ClassServer
)

func (c Class) String() string {
	if c == ClassClient {
		return "client"
	}
	return "server"
}

// UpstreamError describes a failed RecordSource call.
type UpstreamError struct {
	Source  string
	Symbol  string
	Class   Class
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s: %s (status %d)", e.Source, e.Message, e.Status)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// AsUpstream extracts an UpstreamError from err's chain.
func AsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

func notFound(source, symbol string) *UpstreamError {
	return &UpstreamError{Source: source, Symbol: symbol, Class: ClassClient, Status: http.StatusNotFound,
		Message: fmt.Sprintf("symbol %s not found", symbol)}
}

func rateLimited(source, symbol, detail string) *UpstreamError {
	return &UpstreamError{Source: source, Symbol: symbol, Class: ClassClient, Status: http.StatusTooManyRequests,
		Message: "API rate limit hit: " + detail}
}

func unauthorized(source, symbol string) *UpstreamError {
	return &UpstreamError{Source: source, Symbol: symbol, Class: ClassClient, Status: http.StatusUnauthorized,
		Message: "invalid or missing API token"}
}

// statusError classifies a non-2xx HTTP status.
func statusError(source, symbol string, status int, body []byte) *UpstreamError {
	class := ClassServer
	if status >= 400 && status < 500 {
		class = ClassClient
	}
	return &UpstreamError{Source: source, Symbol: symbol, Class: class, Status: status,
		Message: fmt.Sprintf("unexpected status for %s, body: %s", symbol, truncate(body, 200))}
}

func serverError(source, symbol, msg string, err error) *UpstreamError {
	return &UpstreamError{Source: source, Symbol: symbol, Class: ClassServer, Status: http.StatusInternalServerError,
		Message: msg, Err: err}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
