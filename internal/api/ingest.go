package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sitebrain/sitebrain/internal/ingest"
)

// IngestService runs content ingestion on demand.
type IngestService interface {
	IngestAll(ctx context.Context) (ingest.Stats, error)
	IngestWeb(ctx context.Context) (int, []ingest.ItemError, error)
	IngestDocs(ctx context.Context) (int, []ingest.ItemError, error)
}

type ingestHandler struct {
	pipeline IngestService
	logger   *slog.Logger
}

type ingestRequest struct {
	Source string `json:"source"` // "web", "file" or "all" (default)
}

type ingestResponse struct {
	OK         bool     `json:"ok"`
	Message    string   `json:"message"`
	WebChunks  int      `json:"web_chunks"`
	FileChunks int      `json:"file_chunks"`
	Failures   []string `json:"failures,omitempty"`
}

func (h *ingestHandler) ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
			return
		}
	}
	if req.Source == "" {
		req.Source = "all"
	}

	var stats ingest.Stats
	var err error
	switch req.Source {
	case "all":
		stats, err = h.pipeline.IngestAll(r.Context())
	case "web":
		stats.WebChunks, stats.Failures, err = h.pipeline.IngestWeb(r.Context())
	case "file":
		stats.FileChunks, stats.Failures, err = h.pipeline.IngestDocs(r.Context())
	default:
		writeErrorDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "source must be web, file or all",
			map[string]any{"field": "source"}, h.logger)
		return
	}
	if err != nil {
		h.logger.Error("ingestion failed", "source", req.Source, "error", err)
		writeError(w, http.StatusInternalServerError, "ingest_failed", "ingestion failed", h.logger)
		return
	}

	resp := ingestResponse{
		OK:         true,
		Message:    fmt.Sprintf("ingested %d web and %d file chunks", stats.WebChunks, stats.FileChunks),
		WebChunks:  stats.WebChunks,
		FileChunks: stats.FileChunks,
	}
	for _, f := range stats.Failures {
		resp.Failures = append(resp.Failures, f.Error())
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}
