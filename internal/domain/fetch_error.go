package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultFetchMessage is the user-facing message for any failed fetch.
const DefaultFetchMessage = "An error occurred while fetching the data."

// FetchError is the single error shape every failed backend call is normalized into
// before it reaches UI state.
type FetchError struct {
	Status  int    // HTTP status, 0 when no response was received
	Message string // user-facing message
	Info    []byte // raw response body, if any
	Err     error  // taxonomy sentinel (ErrTransport, ErrBackend, ...)
}

// NewFetchError builds a FetchError. cause is wrapped and decides the taxonomy.
func NewFetchError(status int, info []byte, cause error) *FetchError {
	return &FetchError{
		Status:  status,
		Message: DefaultFetchMessage,
		Info:    info,
		Err:     cause,
	}
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (status %d): %v", e.Message, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Detail returns the backend's own error text from a {"detail": "..."} body, if any.
func (e *FetchError) Detail() string {
	if len(e.Info) == 0 {
		return ""
	}
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(e.Info, &body); err != nil {
		return ""
	}
	return body.Detail
}

// AsFetchError normalizes any error into a FetchError. Returns nil for nil.
// Errors that are not already FetchErrors are classified as transport failures.
func AsFetchError(err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return NewFetchError(0, nil, fmt.Errorf("%w: %w", ErrTransport, err))
}
