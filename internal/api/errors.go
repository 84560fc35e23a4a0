package api

import (
	"errors"
	"fmt"
)

// Typed errors for API calls.
// Callers use errors.Is / errors.As instead of matching messages.
var (
	// ErrInvalidRequest indicates the request could not be built (bad URL or parameters).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrTransport indicates a network-level failure; the cause is wrapped alongside it.
	ErrTransport = errors.New("transport error")

	// ErrDecoding indicates the response body did not match the expected shape.
	ErrDecoding = errors.New("decoding error")
)

// HTTPStatusError is returned for any response status outside 200-299
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected http status %d", e.StatusCode)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an HTTPStatusError
func StatusCode(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
