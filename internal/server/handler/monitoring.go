package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// MonitorService expone métricas e históricos.
type MonitorService interface {
	Snapshot(ctx context.Context) (domain.MetricsSnapshot, error)
	History(ctx context.Context, limit int) ([]domain.MetricsPoint, error)
	Events(ctx context.Context, limit int) ([]domain.HistoryEvent, error)
	PipelineRuns(ctx context.Context, limit int) ([]domain.PipelineRun, error)
	Alerts(ctx context.Context, limit int) ([]domain.Alert, error)
}

// AuditReader lee el log de auditoría.
type AuditReader interface {
	ReadAudit(ctx context.Context, limit int, action domain.AuditAction) ([]domain.AuditRecord, error)
}

// MonitoringHandler sirve métricas, históricos y auditoría.
type MonitoringHandler struct {
	monitor MonitorService
	audit   AuditReader
	logger  *slog.Logger
}

// NewMonitoringHandler crea el handler.
func NewMonitoringHandler(monitor MonitorService, audit AuditReader, logger *slog.Logger) *MonitoringHandler {
	return &MonitoringHandler{monitor: monitor, audit: audit, logger: logHandler(logger, "monitoring")}
}

// Metrics GET /api/metrics
func (h *MonitoringHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	snap, err := h.monitor.Snapshot(r.Context())
	if err != nil {
		h.fail(w, r, "snapshot metrics", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// MetricsHistory GET /api/metrics/history?limit=200
func (h *MonitoringHandler) MetricsHistory(w http.ResponseWriter, r *http.Request) {
	points, err := h.monitor.History(r.Context(), parseLimit(r, 200, domain.MaxMetricsHistory))
	if err != nil {
		h.fail(w, r, "metrics history", err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// Events GET /api/events?limit=50
func (h *MonitoringHandler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.monitor.Events(r.Context(), parseLimit(r, 50, domain.MaxEventHistory))
	if err != nil {
		h.fail(w, r, "events", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// PipelineRuns GET /api/pipeline-runs?limit=15
func (h *MonitoringHandler) PipelineRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.monitor.PipelineRuns(r.Context(), parseLimit(r, 15, domain.MaxPipelineRuns))
	if err != nil {
		h.fail(w, r, "pipeline runs", err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// Alerts GET /api/alerts?limit=50
func (h *MonitoringHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.monitor.Alerts(r.Context(), parseLimit(r, 50, 100))
	if err != nil {
		h.fail(w, r, "alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

// Audit GET /api/audit?limit=200&action=queue_approve
func (h *MonitoringHandler) Audit(w http.ResponseWriter, r *http.Request) {
	action := domain.AuditAction(r.URL.Query().Get("action"))
	records, err := h.audit.ReadAudit(r.Context(), parseLimit(r, 200, 500), action)
	if err != nil {
		h.fail(w, r, "audit", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *MonitoringHandler) fail(w http.ResponseWriter, r *http.Request, what string, err error) {
	h.logger.ErrorContext(r.Context(), what+" failed", slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "failed to read "+what)
}
