package upload

import (
	"fmt"
	"strings"

	"github.com/indieinfra/hydrogen/shopify"
)

// StagingError means the staged upload target could not be obtained.
type StagingError struct {
	Filename   string
	StatusCode int
	UserErrors []shopify.UserError
	Err        error
}

func (e *StagingError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("stage upload for %q: %v", e.Filename, e.Err)
	case len(e.UserErrors) > 0:
		return fmt.Sprintf("stage upload for %q: %s", e.Filename, joinUserErrors(e.UserErrors))
	default:
		return fmt.Sprintf("stage upload for %q: unexpected status %d", e.Filename, e.StatusCode)
	}
}

func (e *StagingError) Unwrap() error { return e.Err }

// TransferError means the bytes could not be posted to the staged target.
type TransferError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransferError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transfer to staged target: %v", e.Err)
	}
	return fmt.Sprintf("transfer to staged target: unexpected status %d", e.StatusCode)
}

func (e *TransferError) Unwrap() error { return e.Err }

// RegistrationError means the platform refused to create a file from the staged resource.
type RegistrationError struct {
	ResourceURL string
	StatusCode  int
	UserErrors  []shopify.UserError
	Err         error
}

func (e *RegistrationError) Error() string {
	switch {
	case len(e.UserErrors) > 0:
		return "register file: " + joinUserErrors(e.UserErrors)
	case e.Err != nil:
		return fmt.Sprintf("register file: %v", e.Err)
	default:
		return fmt.Sprintf("register file: unexpected status %d", e.StatusCode)
	}
}

func (e *RegistrationError) Unwrap() error { return e.Err }

func joinUserErrors(errs []shopify.UserError) string {
	parts := make([]string, 0, len(errs))
	for _, ue := range errs {
		parts = append(parts, ue.String())
	}
	return strings.Join(parts, "; ")
}
