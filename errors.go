package stowgate

import "errors"

var (
	// ErrNotFound is returned when an object does not exist
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidRange is returned when a range header cannot be parsed
	ErrInvalidRange = errors.New("invalid range")
	// ErrRangeNotSatisfiable is returned when a range starts past the end of an object
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)
