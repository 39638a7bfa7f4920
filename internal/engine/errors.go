package engine

import "errors"

// Sentinel errors returned by Engine and Gate operations. Callers match
// them with errors.Is; the returned error wraps the sentinel together
// with the offending identifier.
var (
	// ErrDuplicateSection indicates a Define call reused an existing
	// section ID.
	ErrDuplicateSection = errors.New("duplicate section")

	// ErrUnknownSection indicates an operation referenced a section ID
	// that was never defined.
	ErrUnknownSection = errors.New("unknown section")

	// ErrNilFetch indicates a Define call passed a nil fetch function.
	ErrNilFetch = errors.New("nil fetch function")

	// ErrEngineClosed indicates an operation ran after Close.
	ErrEngineClosed = errors.New("engine closed")

	// ErrUnknownRegion indicates a Gate operation referenced a region
	// ID that was never added.
	ErrUnknownRegion = errors.New("unknown region")

	// ErrDuplicateRegion indicates an AddRegion call reused an existing
	// region ID.
	ErrDuplicateRegion = errors.New("duplicate region")

	// ErrWrongResultType indicates a ResultAs call asked for a type the
	// stored result does not hold.
	ErrWrongResultType = errors.New("result type mismatch")
)
