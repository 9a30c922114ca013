package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/eclipsepath/internal/geom"
	"github.com/dgallion1/eclipsepath/internal/pipeline"
	"github.com/dgallion1/eclipsepath/internal/report"
)

type createBatchRequest struct {
	Dir string `json:"dir"`
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	dir, err := s.resolveDir(req.Dir)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		jsonError(w, fmt.Sprintf("directory not found: %s", req.Dir), http.StatusNotFound)
		return
	}

	job := pipeline.NewJob(dir)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/batches/%s", job.ID),
	})
}

// resolveDir maps a request path onto DATA_DIR. Absolute paths and paths
// that climb out of DATA_DIR are rejected.
func (s *Server) resolveDir(rel string) (string, error) {
	if rel == "" {
		rel = "."
	}
	rel = filepath.Clean(filepath.FromSlash(rel))
	if !filepath.IsLocal(rel) && rel != "." {
		return "", fmt.Errorf("dir must be relative to the data directory: %s", rel)
	}
	return filepath.Join(s.cfg.DataDir, rel), nil
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleBatchFeatures(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	ix := job.Index()
	if ix == nil {
		jsonError(w, "batch has not finished", http.StatusConflict)
		return
	}

	bbox, err := parseBBox(r.URL.Query().Get("bbox"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"bbox":     bbox,
		"palette":  s.orchestrator.Palette(),
		"features": ix.Query(bbox),
	})
}

func (s *Server) handleBatchReport(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	b := job.Batch()
	if b == nil {
		jsonError(w, "batch has not finished", http.StatusConflict)
		return
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, b, s.orchestrator.Palette()); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// parseBBox reads "minLon,minLat,maxLon,maxLat". An empty value selects the
// whole globe. minLon > maxLon selects a box across the antimeridian.
func parseBBox(v string) (geom.Bounds, error) {
	if v == "" {
		return geom.Bounds{MinLon: -180, MinLat: -90, MaxLon: 180, MaxLat: 90}, nil
	}
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return geom.Bounds{}, fmt.Errorf("bbox needs 4 comma-separated numbers, got %d", len(parts))
	}
	var n [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geom.Bounds{}, fmt.Errorf("bbox value %q is not a number", p)
		}
		n[i] = f
	}
	b := geom.Bounds{MinLon: n[0], MinLat: n[1], MaxLon: n[2], MaxLat: n[3]}
	if b.MinLat > b.MaxLat {
		return geom.Bounds{}, fmt.Errorf("bbox min latitude %v exceeds max latitude %v", b.MinLat, b.MaxLat)
	}
	return b, nil
}
