package analysis

import "errors"

var (
	// ErrInsufficientData indicates the matrix is too small to analyze.
	ErrInsufficientData = errors.New("insufficient data for analysis")
	// ErrInsufficientGroups indicates fewer than two class groups.
	ErrInsufficientGroups = errors.New("at least two groups required")
	// ErrInvalidOptions indicates malformed analysis options.
	ErrInvalidOptions = errors.New("invalid analysis options")
)
