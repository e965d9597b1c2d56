package common

import "errors"

// ErrNotFound is returned when no stored document matches a query.
var ErrNotFound = errors.New("modelkit: requested document not found")

// Additional package-level errors
var (
	ErrBackendNotSet = errors.New("modelkit: backend not set")
	// ErrUnsupported is returned when a backend lacks an optional capability (listing, inspection).
	ErrUnsupported   = errors.New("modelkit: operation not supported by backend")
	ErrClosed        = errors.New("modelkit: backend is closed")
	ErrEmptyDocument = errors.New("modelkit: empty document")
	ErrNilContext    = errors.New("modelkit: nil context provided")
	ErrInvalidQuery  = errors.New("modelkit: invalid query")
)
