package gorelay

import "errors"

var (
	// ErrCursorParse is returned for cursor strings that were not issued by
	// this package or were corrupted on the way back.
	ErrCursorParse = errors.New("malformed cursor")

	// ErrUnsupportedSortKey is returned when a connection is asked to sort by
	// a key outside of its declared set. It is a configuration error and is
	// never downgraded.
	ErrUnsupportedSortKey = errors.New("unsupported sort key")

	// ErrInvalidArgument is returned for contradictory pagination arguments,
	// e.g. both first and last.
	ErrInvalidArgument = errors.New("invalid pagination arguments")

	// ErrFetch wraps failures of the row source or the entity store.
	ErrFetch = errors.New("fetch failed")
)
