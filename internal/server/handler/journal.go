package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/copytrader/internal/domain"
)

// JournalHandler serves the copy journal. The journal is optional; when no
// store is configured, the endpoints report 404.
type JournalHandler struct {
	store  domain.CopyStore
	logger *slog.Logger
}

// NewJournalHandler creates a JournalHandler. store may be nil.
func NewJournalHandler(store domain.CopyStore, logger *slog.Logger) *JournalHandler {
	return &JournalHandler{
		store:  store,
		logger: logHandler(logger, "journal"),
	}
}

// ListRecent returns the newest copy records.
// GET /api/journal?limit=N
func (h *JournalHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "copy journal not configured")
		return
	}

	limit := parseLimit(r, 100, 500)
	records, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "journal query failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "journal query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

// Stats returns copy record counts grouped by outcome.
// GET /api/journal/stats
func (h *JournalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "copy journal not configured")
		return
	}

	counts, err := h.store.CountByStatus(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "journal stats failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "journal stats failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"by_status": counts,
	})
}
