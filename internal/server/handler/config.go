package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// RiskStore lee y reescribe los umbrales de riesgo.
type RiskStore interface {
	LoadRisk() (domain.RiskParams, error)
	SaveRisk(params domain.RiskParams) error
}

// ConfigHandler sirve la configuración editable en caliente.
type ConfigHandler struct {
	risk       RiskStore
	thresholds domain.AlertThresholds
	logger     *slog.Logger
}

// NewConfigHandler crea el handler de configuración.
func NewConfigHandler(risk RiskStore, thresholds domain.AlertThresholds, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{risk: risk, thresholds: thresholds, logger: logHandler(logger, "config")}
}

type riskPatchRequest struct {
	RiskParams json.RawMessage `json:"risk_params"`
}

// GetRisk devuelve los umbrales de riesgo vigentes.
// GET /api/config/risk
func (h *ConfigHandler) GetRisk(w http.ResponseWriter, r *http.Request) {
	params, err := h.risk.LoadRisk()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "load risk failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load risk params")
		return
	}
	writeJSON(w, http.StatusOK, params)
}

// PatchRisk mezcla los campos recibidos sobre los umbrales actuales y los guarda.
// Acepta los campos sueltos o dentro de "risk_params".
// PATCH /api/config/risk {"min_profit_margin_usd": 0.1}
func (h *ConfigHandler) PatchRisk(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	var wrapped riskPatchRequest
	if err := json.Unmarshal(body, &wrapped); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(wrapped.RiskParams) > 0 {
		body = wrapped.RiskParams
	}

	params, err := h.risk.LoadRisk()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "load risk failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load risk params")
		return
	}
	if err := json.Unmarshal(body, &params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid risk params: "+err.Error())
		return
	}

	if err := h.risk.SaveRisk(params); err != nil {
		h.logger.WarnContext(r.Context(), "save risk rejected", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.InfoContext(r.Context(), "risk params updated",
		slog.Float64("min_profit_margin_usd", params.MinProfitMarginUSD),
		slog.Float64("min_liquidity_per_leg_usd", params.MinLiquidityPerLegUSD),
		slog.Float64("ref_size_usd", params.RefSizeUSD),
	)
	writeJSON(w, http.StatusOK, params)
}

// GetAlerts devuelve los umbrales de alertas del monitor.
// GET /api/config/alerts
func (h *ConfigHandler) GetAlerts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.thresholds)
}
