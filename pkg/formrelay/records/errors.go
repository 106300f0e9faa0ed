package records

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches a ResponseError with status 404.
var ErrNotFound = errors.New("record not found")

// ResponseError is a non-2xx answer from the record store.
type ResponseError struct {
	Method  string
	URL     string
	Status  int
	Message string
	Data    map[string]any
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Message)
}

// Is reports whether target is ErrNotFound and the status is 404.
func (e *ResponseError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}
