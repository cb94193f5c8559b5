package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/sitebrain/sitebrain/internal/rag"
)

const (
	maxQuestionChars = 1000
	maxChatBodyBytes = 64 << 10
)

// AnswerService answers a question grounded in ingested content.
type AnswerService interface {
	Ask(ctx context.Context, question string) (rag.Answer, error)
}

type chatHandler struct {
	answerer AnswerService
	logger   *slog.Logger
}

type chatRequest struct {
	Question string `json:"question"`
}

func (h *chatHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}
	_, _ = io.Copy(io.Discard, r.Body)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeErrorDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "question must not be empty",
			map[string]any{"field": "question"}, h.logger)
		return
	}
	if utf8.RuneCountInString(question) > maxQuestionChars {
		writeErrorDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "question exceeds maximum length",
			map[string]any{"field": "question", "max_chars": maxQuestionChars}, h.logger)
		return
	}

	answer, err := h.answerer.Ask(r.Context(), question)
	if err != nil {
		h.writeAskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer, h.logger)
}

// writeAskError maps answering failures to stable error codes. Unknown
// errors collapse to a generic 500 so internals never leak to clients.
func (h *chatHandler) writeAskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rag.ErrEmptyQuestion):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "question must not be empty", h.logger)
	case errors.Is(err, rag.ErrRateLimited):
		w.Header().Set("Retry-After", "10")
		writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "the answering service is rate limited, try again shortly", h.logger)
	case errors.Is(err, rag.ErrCompletionTimeout):
		writeError(w, http.StatusGatewayTimeout, "TIMEOUT", "the answering service timed out", h.logger)
	default:
		h.logger.Error("answering failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to answer question", h.logger)
	}
}
