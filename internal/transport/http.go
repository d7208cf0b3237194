// Package transport exposes the workbench over HTTP: a JSON REST API
// for uploads, analysis, export, and the assistant, plus the mounted
// MCP endpoint.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chemostats/workbench/internal/dataset"
	"github.com/chemostats/workbench/internal/domain/analysis"
	"github.com/chemostats/workbench/internal/domain/assistant"
	"github.com/chemostats/workbench/internal/domain/workspace"
	"github.com/chemostats/workbench/internal/export"
)

// maxUploadBytes bounds multipart uploads.
const maxUploadBytes = 64 << 20

// Config wires the REST API dependencies.
type Config struct {
	Store      *workspace.Store
	Assistant  *assistant.Service
	PCA        *analysis.PCAAnalyzer
	MCPHandler http.Handler
	Logger     *slog.Logger
}

// Server holds handler state.
type Server struct {
	store     *workspace.Store
	assistant *assistant.Service
	pca       *analysis.PCAAnalyzer
	logger    *slog.Logger
}

// NewRouter builds the HTTP router with all API routes.
func NewRouter(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		store:     cfg.Store,
		assistant: cfg.Assistant,
		pca:       cfg.PCA,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", srv.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/preview", srv.handlePreview)
		r.Post("/analyze/anova", srv.handleAnalyzeAnova)
		r.Post("/analyze/pca", srv.handleAnalyzePCA)
		r.Post("/export/anova", srv.handleExportAnova)

		r.Post("/chat", srv.handleChat)
		r.Post("/chat/context", srv.handleStoreContext)
		r.Get("/chat/history/{fileID}", srv.handleChatHistory)
		r.Delete("/chat/context/{fileID}", srv.handleClearContext)

		r.Get("/workspace", srv.handleWorkspace)
		r.Post("/workspace/ui/sidebar-width", srv.handleSidebarWidth)
		r.Post("/workspace/ui/toggle-left", srv.handleToggleLeft)
		r.Post("/workspace/ui/toggle-right", srv.handleToggleRight)
	})

	if cfg.MCPHandler != nil {
		r.Handle("/mcp", cfg.MCPHandler)
		r.Handle("/mcp/*", cfg.MCPHandler)
	}

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "chemostats-workbench",
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	contents, filename, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	preview, err := dataset.PreviewFile(contents, filename)
	if err != nil {
		s.logger.Error("preview failed", "filename", filename, "error", err)
		writeError(w, statusFor(err), fmt.Errorf("preview failed: %w", err))
		return
	}

	s.logger.Info("preview complete", "filename", filename,
		"trigger", preview.TriggerFound, "variables", preview.NumVariables)
	writeJSON(w, http.StatusOK, preview)
}

func (s *Server) handleAnalyzeAnova(w http.ResponseWriter, r *http.Request) {
	contents, filename, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	opts := analysis.AnovaOptions{
		ClassColumn:  r.FormValue("class_column"),
		FDRThreshold: formFloat(r, "fdr_threshold", 0.05),
		DesignLabel:  formString(r, "design_label", "Treatment"),
		PlotOption:   formInt(r, "plot_option", analysis.PlotBenjamini),
	}

	data, classes, varNames, err := dataset.Parse(contents, filename, opts.ClassColumn)
	if err != nil {
		s.logger.Error("anova parse failed", "filename", filename, "error", err)
		writeError(w, statusFor(err), fmt.Errorf("analysis failed: %w", err))
		return
	}

	analyzer := analysis.NewAnovaAnalyzer(opts.FDRThreshold, s.logger)
	result, err := analyzer.Analyze(data, classes, varNames, opts)
	if err != nil {
		s.logger.Error("anova failed", "filename", filename, "error", err)
		writeError(w, statusFor(err), fmt.Errorf("analysis failed: %w", err))
		return
	}

	s.logger.Info("anova complete", "filename", filename,
		"variables", result.Summary.TotalVariables,
		"significant", result.Summary.BenjaminiSignificant)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAnalyzePCA(w http.ResponseWriter, r *http.Request) {
	contents, filename, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	opts := analysis.PCAOptions{
		NumPCs:      formInt(r, "num_pcs", 3),
		Scaling:     formString(r, "scaling_method", analysis.ScalingAuto),
		DesignLabel: formString(r, "design_label", "Treatment"),
	}

	data, classes, varNames, err := dataset.Parse(contents, filename, r.FormValue("class_column"))
	if err != nil {
		s.logger.Error("pca parse failed", "filename", filename, "error", err)
		writeError(w, statusFor(err), fmt.Errorf("analysis failed: %w", err))
		return
	}

	result, err := s.pca.Analyze(data, classes, varNames, opts)
	if err != nil {
		s.logger.Error("pca failed", "filename", filename, "error", err)
		writeError(w, statusFor(err), fmt.Errorf("analysis failed: %w", err))
		return
	}

	s.logger.Info("pca complete", "filename", filename, "components", result.Summary.NumComponents)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExportAnova(w http.ResponseWriter, r *http.Request) {
	var result analysis.AnovaResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding export payload: %w", err))
		return
	}
	if len(result.Rows) == 0 || len(result.VariableNames) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("export payload is missing results"))
		return
	}

	workbook, err := export.BuildAnovaWorkbook(&result)
	if err != nil {
		s.logger.Error("export failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("export failed: %w", err))
		return
	}

	s.logger.Info("export complete", "bytes", len(workbook))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=ANOVA_results.xlsx")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(workbook)
}

func readUpload(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", fmt.Errorf("parsing upload: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()

	contents, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("reading upload: %w", err)
	}
	return contents, header.Filename, nil
}

func formString(r *http.Request, key, fallback string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return fallback
}

func formFloat(r *http.Request, key string, fallback float64) float64 {
	v := r.FormValue(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func formInt(r *http.Request, key string, fallback int) int {
	v := r.FormValue(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// statusFor maps dataset and analysis validation errors to 422 and
// everything else to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dataset.ErrUnsupportedFormat),
		errors.Is(err, dataset.ErrEmptyFile),
		errors.Is(err, dataset.ErrClassColumnNotFound),
		errors.Is(err, dataset.ErrInsufficientSamples),
		errors.Is(err, dataset.ErrInsufficientVariables),
		errors.Is(err, dataset.ErrInsufficientGroups),
		errors.Is(err, analysis.ErrInsufficientData),
		errors.Is(err, analysis.ErrInsufficientGroups),
		errors.Is(err, analysis.ErrInvalidOptions):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}
