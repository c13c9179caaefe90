package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/copytrader/internal/domain"
	"github.com/alanyoungcy/copytrader/internal/engine"
)

// EngineHandler exposes the replication engine's status and start/stop toggle.
type EngineHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewEngineHandler creates an EngineHandler.
func NewEngineHandler(eng *engine.Engine, logger *slog.Logger) *EngineHandler {
	return &EngineHandler{
		engine: eng,
		logger: logHandler(logger, "engine"),
	}
}

// GetStatus returns the engine status snapshot.
// GET /api/status
func (h *EngineHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Status(r.Context()))
}

// Start begins the polling loop.
// POST /api/engine/start
func (h *EngineHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Start(r.Context()); err != nil {
		if errors.Is(err, domain.ErrEngineRunning) {
			writeError(w, http.StatusConflict, "engine already running")
			return
		}
		h.logger.ErrorContext(r.Context(), "engine start failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// Stop halts the polling loop. In-flight copies are not cancelled.
// POST /api/engine/stop
func (h *EngineHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Stop(); err != nil {
		if errors.Is(err, domain.ErrEngineStopped) {
			writeError(w, http.StatusConflict, "engine not running")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}
