// Package execution decide qué pasa con una oportunidad validada: la encola
// para revisión o la envía, y ejecuta la aprobación como una única unidad.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ports"
)

// Modes lee y escribe el estado de ejecución. No cachea: cada Get va al store.
type Modes struct {
	mu    sync.Mutex
	store ports.ModeStore
	audit ports.AuditLog
}

// NewModes crea el servicio de modos.
func NewModes(store ports.ModeStore, audit ports.AuditLog) *Modes {
	return &Modes{store: store, audit: audit}
}

// Get devuelve el estado vigente (defaults si nunca se guardó).
func (m *Modes) Get(ctx context.Context) (domain.ModeState, error) {
	state, err := m.store.LoadMode(ctx)
	if err != nil {
		return domain.ModeState{}, fmt.Errorf("execution.Modes.Get: %w", err)
	}
	return state, nil
}

// Set aplica u sobre el estado guardado, lo persiste y lo audita.
func (m *Modes) Set(ctx context.Context, u domain.ModeUpdate) (domain.ModeState, error) {
	if u.ExecutionMode != nil {
		mode, err := domain.ParseExecutionMode(string(*u.ExecutionMode))
		if err != nil {
			return domain.ModeState{}, fmt.Errorf("execution.Modes.Set: %w", err)
		}
		u.ExecutionMode = &mode
	}
	if u.TriggerMode != nil {
		trigger := domain.ParseTriggerMode(string(*u.TriggerMode))
		u.TriggerMode = &trigger
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, err := m.store.LoadMode(ctx)
	if err != nil {
		return domain.ModeState{}, fmt.Errorf("execution.Modes.Set: load: %w", err)
	}
	next := cur.Apply(u)
	if err := m.store.SaveMode(ctx, next); err != nil {
		return domain.ModeState{}, fmt.Errorf("execution.Modes.Set: save: %w", err)
	}

	slog.Info("execution mode changed",
		"mode", next.ExecutionMode,
		"dry_run", next.DryRun,
		"trigger", next.TriggerMode,
	)
	appendAudit(ctx, m.audit, domain.AuditExecutionModeChange, map[string]any{
		"mode":    string(next.ExecutionMode),
		"dry_run": next.DryRun,
		"trigger": string(next.TriggerMode),
	})
	return next, nil
}

// appendAudit escribe en el log de auditoría; un fallo se loguea y no corta el flujo.
func appendAudit(ctx context.Context, audit ports.AuditLog, action domain.AuditAction, details map[string]any) {
	if audit == nil {
		return
	}
	if err := audit.AppendAudit(ctx, action, details); err != nil {
		slog.Error("audit append failed", "action", action, "err", err)
	}
}
