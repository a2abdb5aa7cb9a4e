package llm

import "fmt"

// APIError is a non-2xx response from a vendor API, surfaced by a provider
// transport before any stream exists.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: api error: status %d: %s", e.Provider, e.StatusCode, e.Body)
}
