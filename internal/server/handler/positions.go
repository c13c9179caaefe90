package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/copytrader/internal/engine"
)

// PositionsHandler exposes the aggregate portfolio view across the slave
// accounts.
type PositionsHandler struct {
	portfolio *engine.Portfolio
	logger    *slog.Logger
}

// NewPositionsHandler creates a PositionsHandler.
func NewPositionsHandler(p *engine.Portfolio, logger *slog.Logger) *PositionsHandler {
	return &PositionsHandler{
		portfolio: p,
		logger:    logHandler(logger, "positions"),
	}
}

// List returns every active slave account's open positions with per-account
// unrealized PnL.
// GET /api/positions
func (h *PositionsHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.portfolio.Snapshot(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "portfolio snapshot failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": accounts,
	})
}
