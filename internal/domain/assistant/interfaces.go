package assistant

import (
	"context"
	"time"
)

// Message is one stored chat turn for a file.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredContext is the analysis summary kept as conversation context
// for a file.
type StoredContext struct {
	Type     string    `json:"type"`
	Summary  string    `json:"summary"`
	StoredAt time.Time `json:"stored_at"`
}

// Memory provides per-file conversation state. Implementations expire
// contexts after their TTL and cap history length.
type Memory interface {
	SaveContext(ctx context.Context, fileID string, stored StoredContext) error
	GetContext(ctx context.Context, fileID string) (*StoredContext, error)
	AppendMessage(ctx context.Context, fileID string, msg Message) error
	History(ctx context.Context, fileID string, limit int) ([]Message, error)
	ClearFile(ctx context.Context, fileID string) error
}
