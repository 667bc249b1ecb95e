package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// QueueStore persiste la cola de revisión. Los items nunca se borran.
type QueueStore interface {
	// InsertQueueItem asigna id = cantidad actual + 1 y estado pending.
	InsertQueueItem(ctx context.Context, draft domain.QueueDraft) (domain.QueueItem, error)
	// GetQueueItem devuelve domain.ErrNotFound si el id no existe.
	GetQueueItem(ctx context.Context, id int64) (domain.QueueItem, error)
	// ListQueueItems devuelve los items por id ascendente.
	ListQueueItems(ctx context.Context, pendingOnly bool) ([]domain.QueueItem, error)
	// TransitionQueueItem cambia el estado solo si el actual es from (compare-and-swap).
	// Devuelve domain.ErrNotFoundOrProcessed si no aplica.
	TransitionQueueItem(ctx context.Context, id int64, from, to domain.QueueStatus) (domain.QueueItem, error)
}

// ModeStore persiste el único registro de modo de ejecución.
type ModeStore interface {
	// LoadMode devuelve los defaults si nunca se guardó.
	LoadMode(ctx context.Context) (domain.ModeState, error)
	SaveMode(ctx context.Context, state domain.ModeState) error
}

// AuditLog es el log de auditoría append-only.
type AuditLog interface {
	AppendAudit(ctx context.Context, action domain.AuditAction, details map[string]any) error
	// ReadAudit devuelve los más recientes primero; action vacío no filtra.
	ReadAudit(ctx context.Context, limit int, action domain.AuditAction) ([]domain.AuditRecord, error)
}

// MonitorStore persiste métricas, históricos y alertas.
type MonitorStore interface {
	LoadMetrics(ctx context.Context) (domain.Metrics, error)
	// UpdateMetrics aplica fn sobre las métricas actuales en una transacción,
	// guarda el resultado y agrega un punto al histórico.
	UpdateMetrics(ctx context.Context, fn func(domain.Metrics) domain.Metrics) (domain.Metrics, error)
	MetricsHistory(ctx context.Context, limit int) ([]domain.MetricsPoint, error)

	AppendRateTimestamp(ctx context.Context, kind domain.RateKind, at time.Time) error
	CountRateSince(ctx context.Context, kind domain.RateKind, since time.Time) (int, error)

	AppendEvent(ctx context.Context, ev domain.HistoryEvent) error
	Events(ctx context.Context, limit int) ([]domain.HistoryEvent, error)

	AppendPipelineRun(ctx context.Context, run domain.PipelineRun) error
	PipelineRuns(ctx context.Context, limit int) ([]domain.PipelineRun, error)

	AppendAlert(ctx context.Context, alert domain.Alert) error
	Alerts(ctx context.Context, limit int) ([]domain.Alert, error)
}
