package api

import (
	"encoding/json"
	"net/http"

	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/apierr"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/domain"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/sync"
)

// handleUpload is POST /sync/upload/: the body is a complete SystemRepr
// for one asset group, and the store is made to match it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var system domain.SystemRepr
	if err := json.NewDecoder(r.Body).Decode(&system); err != nil {
		apierr.WriteJSON(w, "api", apierr.BadRequest("invalid request body: "+err.Error()))
		return
	}

	if err := s.syncSvc.Upload(r.Context(), system); err != nil {
		apierr.WriteJSON(w, "api", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type getGroupRequest struct {
	AssetGroupID int32 `json:"asset_group_id"`
}

// handleDownload is GET /sync/download/: the body names an asset group
// and the response is the SystemRepr reconstructed from its current
// persisted state.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req getGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteJSON(w, "api", apierr.BadRequest("invalid request body: "+err.Error()))
		return
	}

	system, err := sync.Download(r.Context(), s.gw, req.AssetGroupID)
	if err != nil {
		apierr.WriteJSON(w, "api", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(system)
}
