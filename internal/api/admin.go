package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sitebrain/sitebrain/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	maxListOffset    = 10000
)

// AdminStore exposes the document-level administration operations.
type AdminStore interface {
	ListDocuments(ctx context.Context, opts store.ListOptions) ([]store.DocumentInfo, int64, error)
	DeleteByURI(ctx context.Context, uri string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type adminHandler struct {
	store  AdminStore
	logger *slog.Logger
}

type listDocumentsResponse struct {
	Documents []store.DocumentInfo `json:"documents"`
	Total     int64                `json:"total"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
}

type deleteResponse struct {
	OK            bool   `json:"ok"`
	Message       string `json:"message"`
	ChunksDeleted int64  `json:"chunks_deleted"`
}

func (h *adminHandler) listDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := store.ListOptions{
		Source: q.Get("source"),
		Limit:  defaultListLimit,
	}
	switch opts.Source {
	case "", string(store.SourceWeb), string(store.SourceFile):
	default:
		writeErrorDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "source must be web or file",
			map[string]any{"field": "source"}, h.logger)
		return
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			writeErrorDetails(w, http.StatusBadRequest, "VALIDATION_ERROR",
				fmt.Sprintf("limit must be between 1 and %d", maxListLimit),
				map[string]any{"field": "limit"}, h.logger)
			return
		}
		opts.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 || offset > maxListOffset {
			writeErrorDetails(w, http.StatusBadRequest, "VALIDATION_ERROR",
				fmt.Sprintf("offset must be between 0 and %d", maxListOffset),
				map[string]any{"field": "offset"}, h.logger)
			return
		}
		opts.Offset = offset
	}

	docs, total, err := h.store.ListDocuments(r.Context(), opts)
	if err != nil {
		h.logger.Error("listing documents failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "failed to list documents", h.logger)
		return
	}
	if docs == nil {
		docs = []store.DocumentInfo{}
	}

	writeJSON(w, http.StatusOK, listDocumentsResponse{
		Documents: docs,
		Total:     total,
		Limit:     opts.Limit,
		Offset:    opts.Offset,
	}, h.logger)
}

func (h *adminHandler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	uri := r.PathValue("uri")
	if uri == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "document URI required", h.logger)
		return
	}

	deleted, err := h.store.DeleteByURI(r.Context(), uri)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "no chunks stored for that URI", h.logger)
			return
		}
		h.logger.Error("deleting document failed", "uri", uri, "error", err)
		writeError(w, http.StatusInternalServerError, "delete_failed", "failed to delete document", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{
		OK:            true,
		Message:       fmt.Sprintf("deleted %d chunks for %s", deleted, uri),
		ChunksDeleted: deleted,
	}, h.logger)
}

func (h *adminHandler) deleteAll(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.store.DeleteAll(r.Context())
	if err != nil {
		h.logger.Error("deleting all documents failed", "error", err)
		writeError(w, http.StatusInternalServerError, "delete_failed", "failed to delete documents", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{
		OK:            true,
		Message:       fmt.Sprintf("deleted %d chunks", deleted),
		ChunksDeleted: deleted,
	}, h.logger)
}
