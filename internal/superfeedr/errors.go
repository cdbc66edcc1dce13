package superfeedr

import (
	"fmt"
	"strings"
)

const maxErrorBody = 256

// APIError is a non-2xx reply from the API.
type APIError struct {
	StatusCode int
	Mode       string
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	if body == "" {
		return fmt.Sprintf("superfeedr %s: HTTP %d", e.Mode, e.StatusCode)
	}
	return fmt.Sprintf("superfeedr %s: HTTP %d: %s", e.Mode, e.StatusCode, body)
}
