package domain

import "errors"

var (
	// ErrUnknownCode means a code was missing from a table that is meant to
	// be exhaustive. It signals a table/data mismatch and fails the run.
	ErrUnknownCode = errors.New("unknown code")

	// ErrMalformedCauseToken marks a cause entry that is not a 3 or 4
	// character code. The attribution is dropped and the row continues.
	ErrMalformedCauseToken = errors.New("malformed cause token")

	// ErrMalformedField marks a numeric cell with non-numeric content.
	// The row is skipped.
	ErrMalformedField = errors.New("malformed field")

	// ErrMissingLocation is informational: the record has no usable
	// coordinates and is left out of spatial output.
	ErrMissingLocation = errors.New("missing location")

	// ErrTableLoad wraps any failure to read or parse a decoder table.
	ErrTableLoad = errors.New("decoder table load failed")
)
