package library

import "errors"

var (
	// ErrNotFound reports a missing item, group, or file.
	ErrNotFound = errors.New("not found")
	// ErrMalformed reports a library document that could not be decoded.
	ErrMalformed = errors.New("malformed library document")
	// ErrInvalidTarget reports an operation aimed at a reserved or empty group key.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrEmptyResult reports an operation that had nothing to act on.
	ErrEmptyResult = errors.New("empty result")
	// ErrIO reports a filesystem failure while persisting or copying.
	ErrIO = errors.New("io failure")
	// ErrSweepHeld reports a sweep skipped because the library document on
	// disk could not be loaded.
	ErrSweepHeld = errors.New("sweep held: library document unreadable")
)
