package notion

import (
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the Notion API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion API error: status %d: %s", e.StatusCode, e.Body)
}

// Permanent reports whether retrying the same request can never succeed.
// Rate limiting and server errors clear up on their own; the remaining 4xx
// responses will repeat on every retry.
func (e *APIError) Permanent() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500
}
