package domain

import "errors"

var (
	// ErrTransport signals a network-level failure talking to the backend.
	ErrTransport = errors.New("transport failure")
	// ErrMalformedPayload signals a response body or stream line that could not be decoded.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrBackend signals an error reported by the backend itself (non-2xx or error packet).
	ErrBackend = errors.New("backend error")
	// ErrCancelled marks results of a superseded search. Never surfaced to users.
	ErrCancelled = errors.New("cancelled")
	// ErrInvalidRequest signals invalid caller input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized signals rejected credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrFeatureDisabled signals a capability that is switched off for this deployment.
	ErrFeatureDisabled = errors.New("feature disabled")
)
