// Package pointapi provides HTTP service wrappers for the remote point and
// favorite APIs, including standardized error handling.
package pointapi

import (
	"errors"
	"fmt"
)

// Kind classifies a remote call failure.
type Kind string

const (
	// KindFetch indicates a listing call failed. The UI falls back to an
	// empty list; nothing in the stores is mutated.
	KindFetch Kind = "fetch"

	// KindWrite indicates a create/update/delete/favorite mutation failed.
	// The triggering edit session stays open and nothing is applied locally.
	KindWrite Kind = "write"
)

// Fallback messages surfaced when the server response carries no message
// field, one per operation.
const (
	msgListPoints     = "failed to fetch points"
	msgCreatePoint    = "failed to create point"
	msgUpdatePoint    = "failed to update point"
	msgDeletePoint    = "failed to delete point"
	msgListFavorites  = "failed to fetch favorite points"
	msgAddFavorite    = "failed to favorite point"
	msgRemoveFavorite = "failed to remove favorite point"
)

// RemoteError represents a failed remote call. Message carries the
// server-provided message when one was present, else the per-operation
// fallback. Status is the HTTP status code, or 0 for transport failures.
type RemoteError struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s (status %d): %s", e.Kind, e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Op, e.Message)
}

// Unwrap returns the underlying transport error, if any.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is a RemoteError of KindFetch.
func IsFetchError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == KindFetch
}

// IsWriteError reports whether err is a RemoteError of KindWrite.
func IsWriteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == KindWrite
}

// UserMessage extracts the user-facing message from a remote call error.
// Non-RemoteError values fall through to err.Error().
func UserMessage(err error) string {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}
