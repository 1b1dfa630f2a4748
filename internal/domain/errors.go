package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for domain operations
var (
	// ErrRateLimited indicates the catalog kept throttling after the single retry
	ErrRateLimited = errors.New("catalog rate limited")

	// ErrCatalogUnavailable indicates the catalog service is unreachable
	ErrCatalogUnavailable = errors.New("catalog service is unreachable")

	// ErrBackendUnavailable indicates the list backend is unreachable
	ErrBackendUnavailable = errors.New("list backend is unreachable")

	// ErrEntryNotFound indicates the requested list entry does not exist
	ErrEntryNotFound = errors.New("list entry not found")

	// ErrDuplicateEntry indicates a second entry for the same catalog id was rejected
	ErrDuplicateEntry = errors.New("catalog id already on list")

	// ErrAuthFailed indicates authentication failed
	ErrAuthFailed = errors.New("authentication token is invalid")
)

// StatusError is returned for non-2xx responses that have no more specific meaning
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.Code, e.Body)
}

// Unwrap maps well-known codes to their sentinel
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthFailed
	case http.StatusNotFound:
		return ErrEntryNotFound
	case http.StatusConflict:
		return ErrDuplicateEntry
	}
	return nil
}
