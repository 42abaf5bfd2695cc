package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"likes-service/internal/likes"
)

type batchResponse struct {
	Items map[string]likes.Entry `json:"items"`
}

type toggleRequest struct {
	PostID   string `json:"postId"`
	DeviceID string `json:"deviceId"`
	Liked    bool   `json:"liked"`
}

type toggleResponse struct {
	PostID string `json:"postId"`
	Count  int64  `json:"count"`
	Liked  bool   `json:"liked"`
}

// handleBatchRead handles "GET /likes?ids=a,b,c&deviceId=d". An empty ids
// parameter returns an empty items map without touching storage.
func (s *Server) handleBatchRead(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	deviceID := strings.TrimSpace(q.Get("deviceId"))

	var ids []string
	if raw := q.Get("ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}

	resp := batchResponse{Items: map[string]likes.Entry{}}
	if len(ids) > 0 {
		resp.Items = s.likes.BatchRead(r.Context(), ids, deviceID)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleToggle handles "POST /likes" and applies an idempotent set of the
// liked state for one (post, device) pair.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}

	entry, err := s.likes.Toggle(r.Context(), req.PostID, req.DeviceID, req.Liked)
	if err != nil {
		if errors.Is(err, likes.ErrValidation) {
			writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "Missing postId or deviceId"})
			return
		}
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "Storage failure"})
		return
	}

	writeJSON(w, r, http.StatusOK, toggleResponse{
		PostID: strings.TrimSpace(req.PostID),
		Count:  entry.Count,
		Liked:  entry.Liked,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
