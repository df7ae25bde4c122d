package mutation

import (
	"errors"

	"github.com/jonesrussell/abedge/internal/domain"
)

// Change and backend errors.
var (
	// ErrMalformedChange is domain.ErrMalformedChange, re-exported so callers of
	// this package can match it without importing domain.
	ErrMalformedChange = domain.ErrMalformedChange
	// ErrSelectorMiss is returned when a selector matches no element.
	ErrSelectorMiss = errors.New("selector matched no elements")
	// ErrTargetNotFound is returned when a move or create target cannot be used.
	ErrTargetNotFound = errors.New("target not found")
	// ErrInvalidSelector is returned when a selector cannot be compiled.
	ErrInvalidSelector = errors.New("invalid selector")
	// ErrUnsupportedValue is returned when a change value has the wrong shape.
	ErrUnsupportedValue = errors.New("unsupported change value")
	// ErrChangePanicked wraps a panic recovered while applying one change.
	ErrChangePanicked = errors.New("change panicked")
	// ErrBackendFailure is returned when a backend cannot process a document at all.
	ErrBackendFailure = errors.New("backend failure")
)
