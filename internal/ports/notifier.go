package ports

import (
	"context"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// QueueObserver recibe cada transición exitosa de la cola.
// Un error se registra pero nunca aborta la transición.
type QueueObserver interface {
	OnQueueEvent(ctx context.Context, ev domain.QueueEvent) error
}

// AlertSender entrega alertas de métricas (telegram, consola).
type AlertSender interface {
	SendAlerts(ctx context.Context, alerts []domain.Alert) error
}
