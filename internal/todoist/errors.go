package todoist

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is matched by errors.Is for API responses with status 401 or 403.
var ErrUnauthorized = errors.New("todoist rejected the access token")

// APIError is returned for non-2xx responses from the Todoist API.
type APIError struct {
	StatusCode int
	Operation  string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("todoist %s: http status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("todoist %s: http status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// Is makes 401 and 403 responses match ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	if target != ErrUnauthorized {
		return false
	}
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// maxErrorBody bounds how much of an error response body is kept in APIError.
const maxErrorBody = 512

func truncateBody(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
