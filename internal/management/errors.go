package management

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNetwork wraps transport failures: DNS, connection, TLS, timeouts and
// context cancellation while a request is in flight.
var ErrNetwork = errors.New("network error")

// ResponseError is returned when the API answers with a non-2xx status.
type ResponseError struct {
	// Operation names the client call, e.g. "list workflows".
	Operation string

	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Code and Message come from the API error envelope when present.
	Code    string
	Message string
}

func (e *ResponseError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: status %d: %s: %s", e.Operation, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Operation, e.StatusCode)
}

// IsNotFound reports whether the API answered 404.
func (e *ResponseError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsNotFound reports whether err is a [ResponseError] with status 404.
func IsNotFound(err error) bool {
	var re *ResponseError
	return errors.As(err, &re) && re.IsNotFound()
}
