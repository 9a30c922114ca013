package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleExtractionStats(w http.ResponseWriter, r *http.Request) {
	ex := s.orchestrator.Extractor()
	if ex == nil || ex.Stats == nil {
		jsonError(w, "extraction stats unavailable", http.StatusServiceUnavailable)
		return
	}

	opts := ex.Options()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"marker":      opts.Marker,
		"threshold":   opts.Threshold,
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       ex.Stats.Snapshot(),
	})
}
