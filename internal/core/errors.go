package core

import "errors"

// Relationship and policy errors. Unlike ValidationError these indicate
// a caller bug or a stale reference, not bad user input.
var (
	// ErrAccountNotFound is returned when an operation references an
	// account that does not exist in the store.
	ErrAccountNotFound = errors.New("account not found")

	// ErrTagNotFound is returned when an operation references a tag
	// that does not exist in the store.
	ErrTagNotFound = errors.New("tag not found")

	// ErrReorderFiltered is returned when a reorder is attempted while
	// a search or tag filter is active. Reordering a filtered subset
	// would corrupt the global ordering, so the core refuses it.
	ErrReorderFiltered = errors.New("reorder is disabled while a filter is active")

	// ErrInvalidMove is returned when move positions are out of range
	// for the current account list.
	ErrInvalidMove = errors.New("move positions out of range")
)
