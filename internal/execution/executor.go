package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ports"
	"github.com/alejandrodnm/polyarb/internal/review"
)

// ExecutionRecorder recibe el resultado de cada envío (implementado por monitor.Monitor).
type ExecutionRecorder interface {
	RecordExecution(ctx context.Context, success bool, pnlUSD float64, latency time.Duration) error
}

// ExecResult es el resultado de una aprobación que llegó a enviar las patas.
type ExecResult struct {
	Item    domain.QueueItem     `json:"item"`
	Mode    domain.ExecutionMode `json:"execution_mode"`
	DryRun  bool                 `json:"dry_run"`
	Success bool                 `json:"success"`
	Message string               `json:"message"`
}

// Executor ejecuta la aprobación de un item de la cola.
type Executor struct {
	queue     *review.Queue
	risk      ports.RiskSource
	modes     *Modes
	submitter *Submitter
	recorder  ExecutionRecorder
	audit     ports.AuditLog
}

// NewExecutor arma el executor. recorder y audit pueden ser nil.
func NewExecutor(
	queue *review.Queue,
	risk ports.RiskSource,
	modes *Modes,
	submitter *Submitter,
	recorder ExecutionRecorder,
	audit ports.AuditLog,
) *Executor {
	return &Executor{
		queue:     queue,
		risk:      risk,
		modes:     modes,
		submitter: submitter,
		recorder:  recorder,
		audit:     audit,
	}
}

// Execute aprueba el item id como una única unidad con el lock de la cola tomado:
// Layer 3 con umbrales frescos → patas (0.5, 1 USD, BUY) → envío → métricas →
// approved → auditoría.
//
// Errores:
//   - domain.ErrNotFoundOrProcessed si el item no existe o no está pending.
//   - *domain.Layer3Error si el gate rechaza; el item queda pending.
//   - domain.ErrMissingTokenID si falta algún token; el item queda pending.
//
// Un envío fallido no es error: el item pasa a approved y ExecResult.Success es false.
func (e *Executor) Execute(ctx context.Context, id int64, source domain.TriggerSource) (ExecResult, error) {
	var res ExecResult

	item, err := e.queue.Approve(ctx, id, source, func(ctx context.Context, item domain.QueueItem) error {
		params, err := e.risk.LoadRisk()
		if err != nil {
			return fmt.Errorf("load risk: %w", err)
		}
		profit := domain.ProfitUSD(item.MinCost, params.RefSizeUSD)
		if l3 := params.Validate(profit, item.LiquidityUSD); !l3.Passed {
			slog.Info("layer3 rejected at approval", "id", item.ID, "reason", l3.Reason, "source", source)
			appendAudit(ctx, e.audit, domain.Layer3FailAction(source), map[string]any{
				"id":     item.ID,
				"reason": l3.Reason,
			})
			return &domain.Layer3Error{Reason: l3.Reason}
		}
		if strings.TrimSpace(item.MarketAID) == "" || strings.TrimSpace(item.MarketBID) == "" {
			return domain.ErrMissingTokenID
		}

		state, err := e.modes.Get(ctx)
		if err != nil {
			return err
		}

		start := time.Now()
		sub := e.submitter.Submit(ctx, domain.HedgeLegs(item), state)
		latency := time.Since(start)
		// con las patas enviadas el resto de la unidad no depende del caller
		ctx = context.WithoutCancel(ctx)

		pnl := 0.0
		if sub.Success {
			pnl = domain.ProfitUSD(item.MinCost, domain.ExecutionSizeUSD)
		}
		if e.recorder != nil {
			if err := e.recorder.RecordExecution(ctx, sub.Success, pnl, latency); err != nil {
				slog.Error("record execution failed", "id", item.ID, "err", err)
			}
		}

		res = ExecResult{
			Mode:    state.ExecutionMode,
			DryRun:  state.DryRun,
			Success: sub.Success,
			Message: sub.Message,
		}
		return nil
	})
	if err != nil {
		return ExecResult{Item: item}, fmt.Errorf("execution.Execute: %w", err)
	}

	res.Item = item
	ctx = context.WithoutCancel(ctx)
	slog.Info("queue item executed",
		"id", item.ID,
		"source", source,
		"mode", res.Mode,
		"success", res.Success,
		"message", res.Message,
	)
	appendAudit(ctx, e.audit, domain.ExecAction(source), map[string]any{
		"id":      item.ID,
		"success": res.Success,
		"mode":    string(res.Mode),
		"message": res.Message,
		"source":  string(source),
	})
	return res, nil
}

// IsRejection indica si err es un rechazo del flujo (gate o token faltante) y
// no un fallo de infraestructura.
func IsRejection(err error) bool {
	var l3 *domain.Layer3Error
	return errors.As(err, &l3) || errors.Is(err, domain.ErrMissingTokenID)
}
