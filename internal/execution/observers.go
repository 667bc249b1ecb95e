package execution

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ports"
)

// auditMarketLen es el largo de market_a en los registros de auditoría.
const auditMarketLen = 80

// AuditObserver registra en el log de auditoría cada transición de la cola.
type AuditObserver struct {
	audit ports.AuditLog
}

// NewAuditObserver crea el observer de auditoría.
func NewAuditObserver(audit ports.AuditLog) *AuditObserver {
	return &AuditObserver{audit: audit}
}

// OnQueueEvent implementa ports.QueueObserver.
func (o *AuditObserver) OnQueueEvent(ctx context.Context, ev domain.QueueEvent) error {
	details := map[string]any{
		"id":       ev.Item.ID,
		"market_a": domain.Truncate(ev.Item.MarketA, auditMarketLen),
	}

	var action domain.AuditAction
	switch ev.Kind {
	case domain.QueueItemAdded:
		action = domain.AuditPipelineQueueAdd
		details["profit_usd"] = ev.Item.ProfitUSD
	case domain.QueueItemApproved:
		action = domain.AuditQueueApprove
		details["source"] = string(ev.Source)
	case domain.QueueItemRejected:
		action = domain.AuditQueueReject
	case domain.QueueItemReopened:
		action = domain.AuditQueueReopen
	default:
		return fmt.Errorf("execution.AuditObserver: unknown event kind %q", ev.Kind)
	}
	return o.audit.AppendAudit(ctx, action, details)
}
