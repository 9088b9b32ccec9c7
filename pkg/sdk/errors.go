package searchdeck

import "github.com/kailas-cloud/searchdeck/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrTransport        = domain.ErrTransport
	ErrMalformedPayload = domain.ErrMalformedPayload
	ErrBackend          = domain.ErrBackend
	ErrInvalidRequest   = domain.ErrInvalidRequest
	ErrNotFound         = domain.ErrNotFound
	ErrUnauthorized     = domain.ErrUnauthorized
	ErrFeatureDisabled  = domain.ErrFeatureDisabled
)

// FetchError is the normalized failure of a backend call. Use errors.As to
// read the HTTP status and the raw response body.
type FetchError = domain.FetchError
