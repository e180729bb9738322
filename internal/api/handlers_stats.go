package api

import (
	"net/http"
	"time"
)

// handleOpStats reports latency and failure counts per operation kind.
func (s *Server) handleOpStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"operations": s.store.Stats().Snapshot(),
		"at":         time.Now().UTC(),
	})
}
