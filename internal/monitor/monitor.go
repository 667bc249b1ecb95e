package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ports"
)

// Monitor lleva los contadores de oportunidades y ejecuciones, los históricos
// y las alertas. Implementa ports.QueueObserver para el histórico de eventos.
type Monitor struct {
	store      ports.MonitorStore
	thresholds domain.AlertThresholds
	senders    []ports.AlertSender
	now        func() time.Time
}

// New crea un Monitor. senders recibe cada alerta disparada tras una ejecución.
func New(store ports.MonitorStore, thresholds domain.AlertThresholds, senders ...ports.AlertSender) *Monitor {
	return &Monitor{
		store:      store,
		thresholds: thresholds,
		senders:    senders,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Thresholds devuelve los umbrales de alerta vigentes.
func (m *Monitor) Thresholds() domain.AlertThresholds {
	return m.thresholds
}

// RecordOpportunity cuenta una oportunidad detectada.
func (m *Monitor) RecordOpportunity(ctx context.Context) error {
	if _, err := m.store.UpdateMetrics(ctx, func(cur domain.Metrics) domain.Metrics {
		cur.OpportunitiesCount++
		return cur
	}); err != nil {
		return fmt.Errorf("monitor.RecordOpportunity: %w", err)
	}
	if err := m.store.AppendRateTimestamp(ctx, domain.RateOpportunity, m.now()); err != nil {
		return fmt.Errorf("monitor.RecordOpportunity: rate: %w", err)
	}
	return nil
}

// RecordExecution cuenta una ejecución, evalúa las alertas y las reparte.
// Un sender que falla se loguea; el resto recibe igual las alertas.
func (m *Monitor) RecordExecution(ctx context.Context, success bool, pnlUSD float64, latency time.Duration) error {
	latencyMs := float64(latency) / float64(time.Millisecond)
	updated, err := m.store.UpdateMetrics(ctx, func(cur domain.Metrics) domain.Metrics {
		return cur.AddExecution(success, pnlUSD, latencyMs)
	})
	if err != nil {
		return fmt.Errorf("monitor.RecordExecution: %w", err)
	}
	if err := m.store.AppendRateTimestamp(ctx, domain.RateExecution, m.now()); err != nil {
		return fmt.Errorf("monitor.RecordExecution: rate: %w", err)
	}

	alerts := Evaluate(updated, m.thresholds, m.now())
	if len(alerts) == 0 {
		return nil
	}
	for _, a := range alerts {
		slog.Warn("metric alert", "metric", a.Metric, "threshold", a.Threshold, "message", a.Message)
		if err := m.store.AppendAlert(ctx, a); err != nil {
			slog.Error("persist alert failed", "metric", a.Metric, "err", err)
		}
	}
	for _, s := range m.senders {
		if err := s.SendAlerts(ctx, alerts); err != nil {
			slog.Error("alert delivery failed", "sender", fmt.Sprintf("%T", s), "err", err)
		}
	}
	return nil
}

// RecordEvent agrega un evento al histórico.
func (m *Monitor) RecordEvent(ctx context.Context, eventType string, detail map[string]any) error {
	if err := m.store.AppendEvent(ctx, domain.HistoryEvent{At: m.now(), Type: eventType, Detail: detail}); err != nil {
		return fmt.Errorf("monitor.RecordEvent: %w", err)
	}
	return nil
}

// RecordPipelineRun agrega una entrada al histórico de runs.
func (m *Monitor) RecordPipelineRun(ctx context.Context, runID string, status domain.PipelineRunStatus, message string) error {
	run := domain.PipelineRun{RunID: runID, At: m.now(), Status: status, Message: message}
	if err := m.store.AppendPipelineRun(ctx, run); err != nil {
		return fmt.Errorf("monitor.RecordPipelineRun: %w", err)
	}
	return nil
}

// OnQueueEvent guarda cada transición de la cola en el histórico de eventos.
func (m *Monitor) OnQueueEvent(ctx context.Context, ev domain.QueueEvent) error {
	detail := map[string]any{
		"id":     ev.Item.ID,
		"asset":  string(ev.Item.Asset),
		"source": string(ev.Source),
	}
	if ev.Kind == domain.QueueItemAdded {
		detail["profit_usd"] = ev.Item.ProfitUSD
	}
	return m.RecordEvent(ctx, eventType(ev.Kind), detail)
}

func eventType(k domain.QueueEventKind) string {
	switch k {
	case domain.QueueItemAdded:
		return string(domain.AuditPipelineQueueAdd)
	case domain.QueueItemApproved:
		return string(domain.AuditQueueApprove)
	case domain.QueueItemRejected:
		return string(domain.AuditQueueReject)
	case domain.QueueItemReopened:
		return string(domain.AuditQueueReopen)
	}
	return "queue_" + string(k)
}

// Snapshot devuelve las métricas con los derivados y las alertas que
// dispararían ahora. No persiste ni envía nada.
func (m *Monitor) Snapshot(ctx context.Context) (domain.MetricsSnapshot, error) {
	cur, err := m.store.LoadMetrics(ctx)
	if err != nil {
		return domain.MetricsSnapshot{}, fmt.Errorf("monitor.Snapshot: %w", err)
	}

	since := m.now().Add(-time.Minute)
	opm, err := m.store.CountRateSince(ctx, domain.RateOpportunity, since)
	if err != nil {
		return domain.MetricsSnapshot{}, fmt.Errorf("monitor.Snapshot: opportunity rate: %w", err)
	}
	epm, err := m.store.CountRateSince(ctx, domain.RateExecution, since)
	if err != nil {
		return domain.MetricsSnapshot{}, fmt.Errorf("monitor.Snapshot: execution rate: %w", err)
	}

	alerts := []string{}
	for _, a := range Evaluate(cur, m.thresholds, m.now()) {
		alerts = append(alerts, a.Message)
	}

	return domain.MetricsSnapshot{
		Metrics:              cur,
		ExecutionSuccessRate: cur.SuccessRatePct(),
		DrawdownPct:          cur.DrawdownPct(),
		OpportunitiesPerMin:  opm,
		ExecutionsPerMin:     epm,
		Alerts:               alerts,
	}, nil
}

// History devuelve los últimos puntos de métricas en orden cronológico.
func (m *Monitor) History(ctx context.Context, limit int) ([]domain.MetricsPoint, error) {
	return m.store.MetricsHistory(ctx, limit)
}

// Events devuelve los últimos eventos, el más reciente primero.
func (m *Monitor) Events(ctx context.Context, limit int) ([]domain.HistoryEvent, error) {
	return m.store.Events(ctx, limit)
}

// PipelineRuns devuelve los últimos runs, el más reciente primero.
func (m *Monitor) PipelineRuns(ctx context.Context, limit int) ([]domain.PipelineRun, error) {
	return m.store.PipelineRuns(ctx, limit)
}

// Alerts devuelve las últimas alertas disparadas.
func (m *Monitor) Alerts(ctx context.Context, limit int) ([]domain.Alert, error) {
	return m.store.Alerts(ctx, limit)
}
