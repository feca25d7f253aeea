package fetcher

import "fmt"

// Reason classifies why a fetch failed.
type Reason string

// Fetch failure reasons. Extraction-level problems are never fetch errors.
const (
	ReasonNetwork    Reason = "network"
	ReasonHTTPStatus Reason = "http-status"
	ReasonTimeout    Reason = "timeout"
)

// FetchError is the typed failure returned for any transport problem or
// non-2xx response.
type FetchError struct {
	URL        string
	Reason     Reason
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Reason == ReasonHTTPStatus {
		return fmt.Sprintf("fetch %s: %s %d", e.URL, e.Reason, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

// Unwrap exposes the underlying transport error.
func (e *FetchError) Unwrap() error {
	return e.Err
}
