package dataset

import "errors"

var (
	// ErrUnsupportedFormat indicates a file extension we cannot parse.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyFile indicates a file with no usable rows.
	ErrEmptyFile = errors.New("file contains no data rows")
	// ErrClassColumnNotFound indicates the requested class column is absent.
	ErrClassColumnNotFound = errors.New("class column not found")
	// ErrInsufficientSamples indicates fewer than three data rows.
	ErrInsufficientSamples = errors.New("insufficient samples (minimum 3 required)")
	// ErrInsufficientVariables indicates fewer than two numeric variables.
	ErrInsufficientVariables = errors.New("insufficient variables (minimum 2 required)")
	// ErrInsufficientGroups indicates fewer than two class groups.
	ErrInsufficientGroups = errors.New("insufficient groups (minimum 2 required)")
)
