package lookup

import (
	"errors"
	"fmt"
)

// ErrBodyTooLarge is returned by Fetch when the response body exceeds
// Config.MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError is returned by Fetch for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request %s: status %d", e.URL, e.StatusCode)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
