package platform

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a failed REST call against the platform gateway or audit
// directory, wrapping the HTTP status. Transport-level failures (no response
// at all) are returned as plain wrapped errors and count as transient.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("platform API error %d", e.StatusCode)
	}
	return fmt.Sprintf("platform API error %d: %s", e.StatusCode, e.Message)
}

// IsPermissionDenied reports whether err means the acting account lacks
// rights for the attempted mutation or query.
func IsPermissionDenied(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode == http.StatusForbidden
	}
	return false
}

// IsNotFound reports whether err means the target is already gone (deleted
// message, departed member, removed webhook).
func IsNotFound(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode == http.StatusNotFound
	}
	return false
}

// IsTransient reports whether err is a rate-limit or server/network-level
// failure that a later identical call might not hit.
func IsTransient(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode == http.StatusTooManyRequests || ae.StatusCode >= 500
	}
	// no HTTP status at all: connection-level failure
	return err != nil
}
