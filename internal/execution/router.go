package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ports"
	"github.com/alejandrodnm/polyarb/internal/review"
)

// RouteResult describe qué se hizo con una oportunidad.
type RouteResult struct {
	Queued   bool
	Item     domain.QueueItem
	Reason   string      // motivo Layer 3 cuando se descarta
	Executed *ExecResult // no nil si el trigger auto llegó a enviar
}

// Router manda cada oportunidad validada a la cola y, en trigger auto, la ejecuta.
type Router struct {
	queue    *review.Queue
	risk     ports.RiskSource
	modes    *Modes
	executor *Executor
}

// NewRouter crea el router.
func NewRouter(queue *review.Queue, risk ports.RiskSource, modes *Modes, executor *Executor) *Router {
	return &Router{queue: queue, risk: risk, modes: modes, executor: executor}
}

// Route aplica Layer 3 con los umbrales vigentes. Si falla la oportunidad se
// descarta y Reason trae el motivo. Si pasa se inserta pending y, con trigger
// auto, se ejecuta en el acto con origen auto.
// Un rechazo del executor en modo auto no es error: el item queda pending.
// Tampoco lo es que el item ya se haya procesado por otra vía.
func (r *Router) Route(ctx context.Context, opp domain.Opportunity) (RouteResult, error) {
	params, err := r.risk.LoadRisk()
	if err != nil {
		return RouteResult{}, fmt.Errorf("execution.Route: load risk: %w", err)
	}
	if l3 := params.Validate(opp.ProfitUSD, opp.LiquidityUSD()); !l3.Passed {
		slog.Debug("opportunity dropped by layer3",
			"asset", opp.Asset,
			"market_a", opp.MarketA.ID,
			"market_b", opp.MarketB.ID,
			"profit_usd", opp.ProfitUSD,
			"reason", l3.Reason,
		)
		return RouteResult{Reason: l3.Reason}, nil
	}

	item, err := r.queue.Add(ctx, opp.Draft(), domain.SourcePipeline)
	if err != nil {
		return RouteResult{}, fmt.Errorf("execution.Route: %w", err)
	}
	res := RouteResult{Queued: true, Item: item}

	state, err := r.modes.Get(ctx)
	if err != nil {
		return res, fmt.Errorf("execution.Route: %w", err)
	}
	if state.TriggerMode != domain.TriggerAuto {
		return res, nil
	}

	exec, err := r.executor.Execute(ctx, item.ID, domain.SourceAuto)
	switch {
	case err == nil:
		res.Item = exec.Item
		res.Executed = &exec
	case IsRejection(err):
		slog.Info("auto trigger rejected", "id", item.ID, "err", err)
		res.Reason = err.Error()
	case errors.Is(err, domain.ErrNotFoundOrProcessed):
		// otro actor resolvió el item entre la inserción y el trigger
		slog.Info("auto trigger skipped, item already processed", "id", item.ID)
	default:
		return res, fmt.Errorf("execution.Route: auto trigger: %w", err)
	}
	return res, nil
}
