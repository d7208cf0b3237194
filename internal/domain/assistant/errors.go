package assistant

import "errors"

var (
	// ErrNotConfigured indicates no language model client is available.
	ErrNotConfigured = errors.New("assistant not configured")
	// ErrEmptyMessage indicates a blank user message.
	ErrEmptyMessage = errors.New("empty chat message")
)
