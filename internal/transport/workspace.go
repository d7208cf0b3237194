package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func (s *Server) handleWorkspace(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

type sidebarWidthRequest struct {
	Width int `json:"width"`
}

func (s *Server) handleSidebarWidth(w http.ResponseWriter, r *http.Request) {
	var req sidebarWidthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding width: %w", err))
		return
	}
	s.store.SetAISidebarWidth(req.Width)
	writeJSON(w, http.StatusOK, s.store.Snapshot().UI)
}

func (s *Server) handleToggleLeft(w http.ResponseWriter, _ *http.Request) {
	s.store.ToggleLeftSidebar()
	writeJSON(w, http.StatusOK, s.store.Snapshot().UI)
}

func (s *Server) handleToggleRight(w http.ResponseWriter, _ *http.Request) {
	s.store.ToggleRightSidebar()
	writeJSON(w, http.StatusOK, s.store.Snapshot().UI)
}
