// Package mcp exposes the workbench as a Model Context Protocol
// server: workspace management, dataset analysis, and the assistant
// chat as tools.
package mcp

import (
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chemostats/workbench/internal/domain/analysis"
	"github.com/chemostats/workbench/internal/domain/assistant"
	"github.com/chemostats/workbench/internal/domain/workspace"
)

// Config contains server configuration.
type Config struct {
	Store     *workspace.Store
	Assistant *assistant.Service
	Anova     *analysis.AnovaAnalyzer
	PCA       *analysis.PCAAnalyzer
	Logger    *slog.Logger
}

// Server wires the domain services into MCP tools.
type Server struct {
	mcp       *sdkmcp.Server
	store     *workspace.Store
	assistant *assistant.Service
	anova     *analysis.AnovaAnalyzer
	pca       *analysis.PCAAnalyzer
	logger    *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and
// middleware.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "chemostats-workbench",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	s := &Server{
		mcp:       mcpServer,
		store:     cfg.Store,
		assistant: cfg.Assistant,
		anova:     cfg.Anova,
		pca:       cfg.PCA,
		logger:    logger,
	}

	registerDocResources(mcpServer)

	mcpServer.AddReceivingMiddleware(sessionMiddleware())
	mcpServer.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	mcpServer.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	s.registerWorkspaceTools()
	s.registerAnalysisTools()
	s.registerChatTools()

	return s
}

// MCP returns the underlying SDK server for transport wiring.
func (s *Server) MCP() *sdkmcp.Server {
	return s.mcp
}
