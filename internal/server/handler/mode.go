package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// ModeService lee y escribe el modo de ejecución.
type ModeService interface {
	Get(ctx context.Context) (domain.ModeState, error)
	Set(ctx context.Context, u domain.ModeUpdate) (domain.ModeState, error)
}

// ModeHandler sirve el modo de ejecución.
type ModeHandler struct {
	modes  ModeService
	logger *slog.Logger
}

// NewModeHandler crea el handler de modo.
func NewModeHandler(modes ModeService, logger *slog.Logger) *ModeHandler {
	return &ModeHandler{modes: modes, logger: logHandler(logger, "mode")}
}

// modeRequest acepta las claves en mayúsculas y sus alias en minúsculas.
type modeRequest struct {
	ExecutionMode *string `json:"EXECUTION_MODE"`
	Mode          *string `json:"mode"`
	DryRun        *bool   `json:"DRY_RUN"`
	DryRunAlias   *bool   `json:"dry_run"`
	TriggerMode   *string `json:"TRIGGER_MODE"`
	TriggerAlias  *string `json:"trigger_mode"`
}

func (m modeRequest) update() domain.ModeUpdate {
	var u domain.ModeUpdate
	if s := firstString(m.ExecutionMode, m.Mode); s != nil {
		mode := domain.ExecutionMode(*s)
		u.ExecutionMode = &mode
	}
	if m.DryRun != nil {
		u.DryRun = m.DryRun
	} else {
		u.DryRun = m.DryRunAlias
	}
	if s := firstString(m.TriggerMode, m.TriggerAlias); s != nil {
		trigger := domain.TriggerMode(*s)
		u.TriggerMode = &trigger
	}
	return u
}

func firstString(vals ...*string) *string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// Get devuelve el modo vigente.
// GET /api/execution-mode
func (h *ModeHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.modes.Get(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "get mode failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to read execution mode")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Set aplica un cambio parcial de modo.
// POST /api/execution-mode {"EXECUTION_MODE": "live", "DRY_RUN": false, "TRIGGER_MODE": "auto"}
func (h *ModeHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	state, err := h.modes.Set(r.Context(), req.update())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidMode) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "set mode failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to update execution mode")
		return
	}
	writeJSON(w, http.StatusOK, state)
}
