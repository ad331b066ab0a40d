package cowin

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse is returned when a 2xx body lacks an expected field or is not JSON.
var ErrMalformedResponse = errors.New("malformed response")

// StatusError reports a non-success HTTP status from the upstream API.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	if e.Code == http.StatusForbidden {
		return fmt.Sprintf("too many requests already sent to %s (status %d)", e.URL, e.Code)
	}
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

// IsMalformed reports whether err is a malformed-response error.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}
