// Package drive provides an HTTP client for the Google Drive v3 REST API:
// folder listing, multipart upload, raw download and export of native
// documents. It performs no retries; failures surface to the caller as-is.
package drive

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is matched (errors.Is) by every AuthError.
var ErrUnauthorized = errors.New("drive: Unauthorized")

// AuthError is returned when an operation needs a credential and none could
// be obtained. Err is the underlying acquisition failure, if any.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("drive: Unauthorized: %v", e.Err)
	}

	return "drive: Unauthorized"
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrUnauthorized) hold for any AuthError.
func (e *AuthError) Is(target error) bool {
	return target == ErrUnauthorized
}

// RemoteError carries a non-2xx response. Body is the raw response text,
// unparsed.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("drive: HTTP %d: %s", e.StatusCode, e.Body)
}
