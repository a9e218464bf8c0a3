package gesture

import "errors"

var (
	// ErrInsufficientPoints is returned when a path has fewer than two
	// points where resampling or normalisation needs at least two.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrEmptyPath is returned by centroid and bounding box computations on
	// a path with no points.
	ErrEmptyPath = errors.New("empty path")

	// ErrLengthMismatch is returned when two paths compared point by point
	// differ in length. It usually means the gestures were normalised with
	// different resample counts.
	ErrLengthMismatch = errors.New("path length mismatch")

	// ErrMalformedSerialization is returned when gesture text does not parse
	// as a name followed by alternating numeric tokens.
	ErrMalformedSerialization = errors.New("malformed gesture serialization")

	// ErrInvalidName is returned when a gesture name cannot be written as a
	// single whitespace-free token.
	ErrInvalidName = errors.New("invalid gesture name")

	// ErrNoTemplates is returned when recognition runs against an empty
	// template library.
	ErrNoTemplates = errors.New("no templates")
)
