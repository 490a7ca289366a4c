package reconcile

import "fmt"

// LookupError means the remote state of one record could not be determined.
type LookupError struct {
	MediaID    int64
	ExternalID string
	StatusCode int
	Err        error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lookup %s (media %d): %v", e.ExternalID, e.MediaID, e.Err)
	}
	return fmt.Sprintf("lookup %s (media %d): unexpected status %d", e.ExternalID, e.MediaID, e.StatusCode)
}

func (e *LookupError) Unwrap() error { return e.Err }
