package workspace

import "github.com/google/uuid"

// newID returns an opaque identifier unique within a session. IDs carry
// no meaning and are never reused after deletion.
func newID() string {
	return uuid.NewString()
}
