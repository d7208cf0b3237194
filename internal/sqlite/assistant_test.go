package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chemostats/workbench/internal/domain/assistant"
)

func TestMemoryRepository_SaveAndGetContext(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMemoryRepository(db)
	ctx := context.Background()

	stored := assistant.StoredContext{
		Type:     "anova",
		Summary:  "ANOVA found 12 significant variables.",
		StoredAt: time.Now(),
	}
	require.NoError(t, repo.SaveContext(ctx, "file-1", stored))

	got, err := repo.GetContext(ctx, "file-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "anova", got.Type)
	require.Equal(t, stored.Summary, got.Summary)
}

func TestMemoryRepository_GetContextMissing(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMemoryRepository(db)

	got, err := repo.GetContext(context.Background(), "no-such-file")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMemoryRepository_SaveContextReplaces(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMemoryRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveContext(ctx, "file-1", assistant.StoredContext{
		Type: "anova", Summary: "first", StoredAt: time.Now(),
	}))
	require.NoError(t, repo.SaveContext(ctx, "file-1", assistant.StoredContext{
		Type: "pca", Summary: "second", StoredAt: time.Now(),
	}))

	got, err := repo.GetContext(ctx, "file-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "pca", got.Type)
	require.Equal(t, "second", got.Summary)
}

func TestMemoryRepository_ExpiredContextNotReturned(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMemoryRepository(db)
	ctx := context.Background()

	// StoredAt two days ago puts expiry well in the past.
	require.NoError(t, repo.SaveContext(ctx, "file-1", assistant.StoredContext{
		Type: "anova", Summary: "stale", StoredAt: time.Now().Add(-48 * time.Hour),
	}))

	got, err := repo.GetContext(ctx, "file-1")
	require.NoError(t, err)
	require.Nil(t, got)

	pruned, err := repo.PruneExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), pruned)
}

func TestMemoryRepository_HistoryOrderAndLimit(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMemoryRepository(db)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		require.NoError(t, repo.AppendMessage(ctx, "file-1", assistant.Message{
			Role:      role,
			Content:   fmt.Sprintf("turn %d", i),
			CreatedAt: time.Now(),
		}))
	}

	history, err := repo.History(ctx, "file-1", 4)
	require.NoError(t, err)
	require.Len(t, history, 4)
	require.Equal(t, "turn 2", history[0].Content)
	require.Equal(t, "turn 5", history[3].Content)

	all, err := repo.History(ctx, "file-1", 0)
	require.NoError(t, err)
	require.Len(t, all, 6)
}

func TestMemoryRepository_HistoryIsolatedPerFile(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMemoryRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.AppendMessage(ctx, "file-1", assistant.Message{Role: "user", Content: "a", CreatedAt: time.Now()}))
	require.NoError(t, repo.AppendMessage(ctx, "file-2", assistant.Message{Role: "user", Content: "b", CreatedAt: time.Now()}))

	history, err := repo.History(ctx, "file-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "a", history[0].Content)
}

func TestMemoryRepository_HistoryCapped(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMemoryRepository(db)
	ctx := context.Background()

	for i := 0; i < historyCap+10; i++ {
		require.NoError(t, repo.AppendMessage(ctx, "file-1", assistant.Message{
			Role: "user", Content: fmt.Sprintf("turn %d", i), CreatedAt: time.Now(),
		}))
	}

	all, err := repo.History(ctx, "file-1", 0)
	require.NoError(t, err)
	require.Len(t, all, historyCap)
	require.Equal(t, "turn 10", all[0].Content)
}

func TestMemoryRepository_ClearFile(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMemoryRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveContext(ctx, "file-1", assistant.StoredContext{
		Type: "anova", Summary: "ctx", StoredAt: time.Now(),
	}))
	require.NoError(t, repo.AppendMessage(ctx, "file-1", assistant.Message{Role: "user", Content: "hi", CreatedAt: time.Now()}))

	require.NoError(t, repo.ClearFile(ctx, "file-1"))

	got, err := repo.GetContext(ctx, "file-1")
	require.NoError(t, err)
	require.Nil(t, got)

	history, err := repo.History(ctx, "file-1", 10)
	require.NoError(t, err)
	require.Empty(t, history)
}
