// Package testserver spins up the full HTTP stack against an
// in-memory database for integration tests.
package testserver

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/chemostats/workbench/internal/domain/analysis"
	"github.com/chemostats/workbench/internal/domain/assistant"
	"github.com/chemostats/workbench/internal/domain/workspace"
	"github.com/chemostats/workbench/internal/sqlite"
	"github.com/chemostats/workbench/internal/transport"
)

type TestServer struct {
	Server    *httptest.Server
	DB        *sqlite.DB
	Store     *workspace.Store
	Memory    *sqlite.MemoryRepository
	Assistant *assistant.Service
}

// New starts a server with an in-memory database. A nil llm leaves the
// assistant chat disabled; context storage and history still work.
func New(t *testing.T, llm llms.Model) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	memory := sqlite.NewMemoryRepository(db)
	assistantSvc := assistant.NewService(llm, memory, nil)
	store := workspace.NewStore(nil)

	server := httptest.NewServer(transport.NewRouter(transport.Config{
		Store:     store,
		Assistant: assistantSvc,
		PCA:       analysis.NewPCAAnalyzer(nil),
	}))

	ts := &TestServer{
		Server:    server,
		DB:        db,
		Store:     store,
		Memory:    memory,
		Assistant: assistantSvc,
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}
