package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/copytrader/internal/engine"
)

// KillSwitchHandler exposes the emergency position-flattening endpoint.
type KillSwitchHandler struct {
	killSwitch *engine.KillSwitch
	logger     *slog.Logger
}

// NewKillSwitchHandler creates a KillSwitchHandler.
func NewKillSwitchHandler(ks *engine.KillSwitch, logger *slog.Logger) *KillSwitchHandler {
	return &KillSwitchHandler{
		killSwitch: ks,
		logger:     logHandler(logger, "killswitch"),
	}
}

// Trigger flattens every open position on every active slave account and
// returns the per-account results.
// POST /api/killswitch
func (h *KillSwitchHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	h.logger.WarnContext(r.Context(), "kill switch requested",
		slog.String("remote_addr", r.RemoteAddr),
	)

	// A dropped operator connection must not cancel the flatten mid-sweep:
	// once triggered, it runs to completion.
	ctx := context.WithoutCancel(r.Context())

	results, err := h.killSwitch.CloseAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "kill switch failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": results,
	})
}
