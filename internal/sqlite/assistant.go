package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chemostats/workbench/internal/domain/assistant"
)

// contextTTL is how long a stored analysis context stays valid.
const contextTTL = 24 * time.Hour

// historyCap bounds how many turns are kept per file.
const historyCap = 50

// MemoryRepository implements assistant.Memory for SQLite
type MemoryRepository struct {
	db *DB
}

// NewMemoryRepository creates a new MemoryRepository
func NewMemoryRepository(db *DB) *MemoryRepository {
	return &MemoryRepository{db: db}
}

// SaveContext stores or replaces the analysis context for a file
func (r *MemoryRepository) SaveContext(ctx context.Context, fileID string, stored assistant.StoredContext) error {
	query := `
		INSERT INTO assistant_contexts (file_id, context_type, summary, stored_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
			context_type = excluded.context_type,
			summary = excluded.summary,
			stored_at = excluded.stored_at,
			expires_at = excluded.expires_at
	`

	_, err := r.db.ExecContext(ctx, query,
		fileID,
		stored.Type,
		stored.Summary,
		stored.StoredAt,
		stored.StoredAt.Add(contextTTL),
	)
	if err != nil {
		return fmt.Errorf("failed to save context: %w", err)
	}

	return nil
}

// GetContext retrieves the analysis context for a file, or nil if none
// is stored or the stored one has expired
func (r *MemoryRepository) GetContext(ctx context.Context, fileID string) (*assistant.StoredContext, error) {
	query := `
		SELECT context_type, summary, stored_at
		FROM assistant_contexts
		WHERE file_id = ? AND expires_at > ?
	`

	var stored assistant.StoredContext
	err := r.db.QueryRowContext(ctx, query, fileID, time.Now()).Scan(
		&stored.Type,
		&stored.Summary,
		&stored.StoredAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get context: %w", err)
	}

	return &stored, nil
}

// AppendMessage records a chat turn for a file and trims history past
// the cap
func (r *MemoryRepository) AppendMessage(ctx context.Context, fileID string, msg assistant.Message) error {
	insertQuery := `
		INSERT INTO assistant_messages (file_id, role, content, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, insertQuery, fileID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	trimQuery := `
		DELETE FROM assistant_messages
		WHERE file_id = ? AND id NOT IN (
			SELECT id FROM assistant_messages
			WHERE file_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
	`

	if _, err := r.db.ExecContext(ctx, trimQuery, fileID, fileID, historyCap); err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}

	return nil
}

// History returns up to limit most recent chat turns for a file,
// oldest first. A limit of zero or less returns everything kept.
func (r *MemoryRepository) History(ctx context.Context, fileID string, limit int) ([]assistant.Message, error) {
	if limit <= 0 {
		limit = historyCap
	}

	query := `
		SELECT role, content, created_at
		FROM (
			SELECT id, role, content, created_at
			FROM assistant_messages
			WHERE file_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, fileID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var messages []assistant.Message
	for rows.Next() {
		var msg assistant.Message
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}

// ClearFile drops the context and history for a file
func (r *MemoryRepository) ClearFile(ctx context.Context, fileID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM assistant_contexts WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("failed to clear context: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM assistant_messages WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	return nil
}

// PruneExpired removes contexts past their expiry time
func (r *MemoryRepository) PruneExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM assistant_contexts WHERE expires_at <= ?", time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to prune contexts: %w", err)
	}
	return result.RowsAffected()
}
