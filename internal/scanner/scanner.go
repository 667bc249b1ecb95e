package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/execution"
	"github.com/alejandrodnm/polyarb/internal/ports"
)

// Config contiene la configuración del pipeline.
type Config struct {
	Interval   time.Duration // pausa entre el fin de un run y el inicio del siguiente
	EventLimit int
	TopEvents  int
}

// DefaultConfig devuelve la configuración por defecto.
func DefaultConfig() Config {
	return Config{
		Interval:   10 * time.Second,
		EventLimit: 150,
		TopEvents:  DefaultTopEvents,
	}
}

// Router recibe cada oportunidad con arbitraje (implementado por execution.Router).
type Router interface {
	Route(ctx context.Context, opp domain.Opportunity) (execution.RouteResult, error)
}

// RunRecorder registra oportunidades y runs (implementado por monitor.Monitor).
type RunRecorder interface {
	RecordOpportunity(ctx context.Context) error
	RecordPipelineRun(ctx context.Context, runID string, status domain.PipelineRunStatus, message string) error
}

// RunResult resume un run del pipeline.
type RunResult struct {
	RunID         string
	Events        int
	Pairs         int
	Dependent     int
	Opportunities []domain.Opportunity
	Queued        []domain.QueueItem
	Executed      []execution.ExecResult
	Dropped       int // rechazadas por Layer 3 en la inserción
}

// Scanner es el orquestador del pipeline de detección.
type Scanner struct {
	cfg        Config
	events     ports.EventProvider
	classifier *Classifier
	risk       ports.RiskSource
	router     Router
	recorder   RunRecorder
	audit      ports.AuditLog
}

// New crea un Scanner con todas las dependencias inyectadas.
func New(
	cfg Config,
	events ports.EventProvider,
	classifier *Classifier,
	risk ports.RiskSource,
	router Router,
	recorder RunRecorder,
	audit ports.AuditLog,
) *Scanner {
	if cfg.TopEvents <= 1 {
		cfg.TopEvents = DefaultTopEvents
	}
	return &Scanner{
		cfg:        cfg,
		events:     events,
		classifier: classifier,
		risk:       risk,
		router:     router,
		recorder:   recorder,
		audit:      audit,
	}
}

// Run ejecuta el pipeline en loop hasta que el contexto se cancele.
// Los runs nunca se solapan: la pausa empieza cuando termina el anterior.
// Un run fallido se loguea y el loop sigue.
func (s *Scanner) Run(ctx context.Context) error {
	slog.Info("pipeline loop starting", "interval", s.cfg.Interval)

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			slog.Error("pipeline run failed", "err", err)
		}

		select {
		case <-ctx.Done():
			slog.Info("pipeline loop stopped")
			return nil
		case <-time.After(s.cfg.Interval):
		}
	}
}

// RunOnce ejecuta exactamente un run y registra su inicio y su fin.
func (s *Scanner) RunOnce(ctx context.Context) (RunResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	s.recordRun(ctx, runID, domain.RunStarted, "Gamma + LLM + Layer1")

	res, err := s.cycle(ctx, runID)
	if err != nil {
		s.recordRun(ctx, runID, domain.RunError, err.Error())
		return res, err
	}

	s.recordRun(ctx, runID, domain.RunCompleted, fmt.Sprintf("Kuyruğa %d kayıt eklendi", len(res.Queued)))
	slog.Info("pipeline run complete",
		"run_id", runID,
		"events", res.Events,
		"pairs", res.Pairs,
		"dependent", res.Dependent,
		"opportunities", len(res.Opportunities),
		"queued", len(res.Queued),
		"executed", len(res.Executed),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}

// cycle hace fetch → group → pares → clasificar → LP → router, un par a la vez.
func (s *Scanner) cycle(ctx context.Context, runID string) (RunResult, error) {
	res := RunResult{RunID: runID}

	// snapshot de riesgo para todo el run; el router y el executor releen los suyos
	risk, err := s.risk.LoadRisk()
	if err != nil {
		return res, fmt.Errorf("scanner.cycle: load risk: %w", err)
	}

	events, err := s.events.FetchCryptoEvents(ctx, s.cfg.EventLimit)
	if err != nil {
		return res, fmt.Errorf("scanner.cycle: fetch events: %w", err)
	}
	res.Events = len(events)

	for _, g := range GroupByAsset(events) {
		for _, c := range Candidates(g, s.cfg.TopEvents, risk.MinLiquidityPerLegUSD) {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			res.Pairs++

			opp, ok := s.evaluate(ctx, c, risk)
			if !ok {
				continue
			}
			res.Dependent++
			if !opp.Result.HasArbitrage {
				continue
			}
			res.Opportunities = append(res.Opportunities, opp)
			if err := s.recorder.RecordOpportunity(ctx); err != nil {
				slog.Warn("record opportunity failed", "err", err)
			}

			routed, err := s.router.Route(ctx, opp)
			if err != nil {
				return res, fmt.Errorf("scanner.cycle: route %s: %w", c.PairID(), err)
			}
			if !routed.Queued {
				res.Dropped++
				continue
			}
			res.Queued = append(res.Queued, routed.Item)
			if routed.Executed != nil {
				res.Executed = append(res.Executed, *routed.Executed)
			}
		}
	}
	return res, nil
}

// evaluate clasifica el par y resuelve el LP. ok es false si el LLM falla o
// si los mercados no son dependientes.
func (s *Scanner) evaluate(ctx context.Context, c Candidate, risk domain.RiskParams) (domain.Opportunity, bool) {
	cls, err := s.classifier.Classify(ctx, c.MarketA, c.MarketB)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return domain.Opportunity{}, false
		}
		slog.Warn("llm classification failed", "pair", c.PairID(), "err", err)
		s.appendAudit(ctx, domain.AuditPipelineLLMError, map[string]any{
			"pair": c.PairID(),
			"err":  err.Error(),
		})
		return domain.Opportunity{}, false
	}
	if !cls.Check.Valid {
		slog.Debug("llm reply without valid combinations", "pair", c.PairID(), "raw", cls.Raw)
		return domain.Opportunity{}, false
	}
	if !cls.Check.Dependent {
		slog.Debug("pair not dependent",
			"pair", c.PairID(),
			"combinations", len(cls.Check.Combinations),
		)
		return domain.Opportunity{}, false
	}

	result := domain.SolveArbitrage(domain.PricesFor(c.MarketA, c.MarketB), cls.Check.Combinations)
	slog.Debug("pair solved", "pair", c.PairID(), "min_cost", result.MinCost, "arbitrage", result.HasArbitrage)

	return domain.Opportunity{
		Asset:        c.Asset,
		MarketA:      c.MarketA,
		MarketB:      c.MarketB,
		Combinations: cls.Check.Combinations,
		Result:       result,
		ProfitUSD:    domain.ProfitUSD(result.MinCost, risk.RefSizeUSD),
	}, true
}

func (s *Scanner) recordRun(ctx context.Context, runID string, status domain.PipelineRunStatus, msg string) {
	if err := s.recorder.RecordPipelineRun(context.WithoutCancel(ctx), runID, status, msg); err != nil {
		slog.Warn("record pipeline run failed", "status", status, "err", err)
	}
}

func (s *Scanner) appendAudit(ctx context.Context, action domain.AuditAction, details map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.AppendAudit(ctx, action, details); err != nil {
		slog.Error("audit append failed", "action", action, "err", err)
	}
}
