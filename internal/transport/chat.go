package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chemostats/workbench/internal/domain/analysis"
	"github.com/chemostats/workbench/internal/domain/assistant"
)

type chatRequest struct {
	FileID   string `json:"file_id"`
	Message  string `json:"message"`
	FileName string `json:"file_name,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
	FileID   string `json:"file_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeError(w, http.StatusServiceUnavailable, assistant.ErrNotConfigured)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding chat request: %w", err))
		return
	}
	if req.FileID == "" {
		writeError(w, http.StatusBadRequest, errors.New("file_id is required"))
		return
	}

	reply, err := s.assistant.Chat(r.Context(), req.FileID, req.Message, req.FileName)
	if err != nil {
		switch {
		case errors.Is(err, assistant.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, err)
		case errors.Is(err, assistant.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, err)
		default:
			s.logger.Error("chat failed", "file_id", req.FileID, "error", err)
			writeError(w, http.StatusInternalServerError, fmt.Errorf("chat failed: %w", err))
		}
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Response: reply, FileID: req.FileID})
}

func (s *Server) handleStoreContext(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeError(w, http.StatusServiceUnavailable, assistant.ErrNotConfigured)
		return
	}

	fileID := r.FormValue("file_id")
	analysisType := r.FormValue("analysis_type")
	results := r.FormValue("results")
	if fileID == "" || analysisType == "" || results == "" {
		writeError(w, http.StatusBadRequest, errors.New("file_id, analysis_type, and results are required"))
		return
	}

	var err error
	switch analysisType {
	case string(analysis.MethodAnova):
		var res analysis.AnovaResult
		if err = json.Unmarshal([]byte(results), &res); err == nil {
			err = s.assistant.StoreAnovaContext(r.Context(), fileID, &res)
		}
	case string(analysis.MethodPCA):
		var res analysis.PCAResult
		if err = json.Unmarshal([]byte(results), &res); err == nil {
			err = s.assistant.StorePCAContext(r.Context(), fileID, &res)
		}
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown analysis_type %q", analysisType))
		return
	}
	if err != nil {
		s.logger.Error("store context failed", "file_id", fileID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": fmt.Sprintf("Context stored for %s", fileID),
	})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeError(w, http.StatusServiceUnavailable, assistant.ErrNotConfigured)
		return
	}
	fileID := chi.URLParam(r, "fileID")

	history, err := s.assistant.History(r.Context(), fileID, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	stored, err := s.assistant.Context(r.Context(), fileID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	payload := map[string]any{
		"history":     history,
		"has_context": stored != nil,
	}
	if stored != nil {
		payload["context_type"] = stored.Type
	} else {
		payload["context_type"] = nil
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleClearContext(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeError(w, http.StatusServiceUnavailable, assistant.ErrNotConfigured)
		return
	}
	fileID := chi.URLParam(r, "fileID")

	if err := s.assistant.ClearContext(r.Context(), fileID); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.store.ClearChat()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": fmt.Sprintf("Context cleared for %s", fileID),
	})
}
