package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// LoadMetrics devuelve los contadores actuales (cero si nunca se escribieron).
func (s *SQLiteStorage) LoadMetrics(ctx context.Context) (domain.Metrics, error) {
	m, err := loadMetrics(ctx, s.db)
	if err != nil {
		return domain.Metrics{}, fmt.Errorf("storage.LoadMetrics: %w", err)
	}
	return m, nil
}

func loadMetrics(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}) (domain.Metrics, error) {
	var (
		m       domain.Metrics
		updated sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT opportunities_count, executions_count, executions_success,
		       total_pnl, peak_pnl, avg_latency_ms, updated_at
		FROM metrics WHERE id = 1`,
	).Scan(&m.OpportunitiesCount, &m.ExecutionsCount, &m.ExecutionsSuccess,
		&m.TotalPnL, &m.PeakPnL, &m.AvgLatencyMs, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Metrics{}, nil
	}
	if err != nil {
		return domain.Metrics{}, err
	}
	if updated.Valid {
		m.UpdatedAt = parseTime(updated.String)
	}
	return m, nil
}

// UpdateMetrics lee, aplica fn y guarda en una sola transacción, y agrega el
// punto resultante al histórico (acotado a domain.MaxMetricsHistory).
func (s *SQLiteStorage) UpdateMetrics(ctx context.Context, fn func(domain.Metrics) domain.Metrics) (domain.Metrics, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Metrics{}, fmt.Errorf("storage.UpdateMetrics: begin tx: %w", err)
	}
	defer tx.Rollback()

	cur, err := loadMetrics(ctx, tx)
	if err != nil {
		return domain.Metrics{}, fmt.Errorf("storage.UpdateMetrics: load: %w", err)
	}
	next := fn(cur)
	next.UpdatedAt = s.now()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO metrics (id, opportunities_count, executions_count, executions_success,
		                     total_pnl, peak_pnl, avg_latency_ms, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			opportunities_count = excluded.opportunities_count,
			executions_count    = excluded.executions_count,
			executions_success  = excluded.executions_success,
			total_pnl           = excluded.total_pnl,
			peak_pnl            = excluded.peak_pnl,
			avg_latency_ms      = excluded.avg_latency_ms,
			updated_at          = excluded.updated_at`,
		next.OpportunitiesCount, next.ExecutionsCount, next.ExecutionsSuccess,
		next.TotalPnL, next.PeakPnL, next.AvgLatencyMs, formatTime(next.UpdatedAt),
	); err != nil {
		return domain.Metrics{}, fmt.Errorf("storage.UpdateMetrics: upsert: %w", err)
	}

	p := next.Point()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO metrics_history (at, opportunities_count, executions_count, total_pnl, drawdown_pct, avg_latency_ms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		formatTime(p.At), p.OpportunitiesCount, p.ExecutionsCount, p.TotalPnL, p.DrawdownPct, p.AvgLatencyMs,
	); err != nil {
		return domain.Metrics{}, fmt.Errorf("storage.UpdateMetrics: append history: %w", err)
	}
	if err := capTable(ctx, tx, "metrics_history", domain.MaxMetricsHistory); err != nil {
		return domain.Metrics{}, fmt.Errorf("storage.UpdateMetrics: cap history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Metrics{}, fmt.Errorf("storage.UpdateMetrics: commit: %w", err)
	}
	return next, nil
}

// MetricsHistory devuelve los últimos limit puntos en orden cronológico.
func (s *SQLiteStorage) MetricsHistory(ctx context.Context, limit int) ([]domain.MetricsPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT at, opportunities_count, executions_count, total_pnl, drawdown_pct, avg_latency_ms
		FROM (SELECT rowid, * FROM metrics_history ORDER BY rowid DESC LIMIT ?)
		ORDER BY rowid`, clampLimit(limit, domain.MaxMetricsHistory))
	if err != nil {
		return nil, fmt.Errorf("storage.MetricsHistory: query: %w", err)
	}
	defer rows.Close()

	points := []domain.MetricsPoint{}
	for rows.Next() {
		var (
			p  domain.MetricsPoint
			at string
		)
		if err := rows.Scan(&at, &p.OpportunitiesCount, &p.ExecutionsCount, &p.TotalPnL, &p.DrawdownPct, &p.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("storage.MetricsHistory: scan row: %w", err)
		}
		p.At = parseTime(at)
		points = append(points, p)
	}
	return points, rows.Err()
}

// AppendRateTimestamp guarda un timestamp y deja solo los últimos
// domain.MaxRateTimestamps de ese tipo.
func (s *SQLiteStorage) AppendRateTimestamp(ctx context.Context, kind domain.RateKind, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.AppendRateTimestamp: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rate_timestamps (kind, at) VALUES (?, ?)`, string(kind), formatTime(at),
	); err != nil {
		return fmt.Errorf("storage.AppendRateTimestamp: insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM rate_timestamps WHERE kind = ? AND rowid NOT IN (
			SELECT rowid FROM rate_timestamps WHERE kind = ? ORDER BY rowid DESC LIMIT ?
		)`, string(kind), string(kind), domain.MaxRateTimestamps,
	); err != nil {
		return fmt.Errorf("storage.AppendRateTimestamp: cap: %w", err)
	}
	return tx.Commit()
}

// CountRateSince cuenta los timestamps de kind posteriores o iguales a since.
func (s *SQLiteStorage) CountRateSince(ctx context.Context, kind domain.RateKind, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rate_timestamps WHERE kind = ? AND at >= ?`,
		string(kind), formatTime(since),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("storage.CountRateSince: %w", err)
	}
	return n, nil
}

// AppendEvent agrega un evento al histórico (acotado a domain.MaxEventHistory).
func (s *SQLiteStorage) AppendEvent(ctx context.Context, ev domain.HistoryEvent) error {
	if ev.Detail == nil {
		ev.Detail = map[string]any{}
	}
	raw, err := json.Marshal(ev.Detail)
	if err != nil {
		return fmt.Errorf("storage.AppendEvent: marshal detail: %w", err)
	}
	return s.appendCapped(ctx, "storage.AppendEvent", "events", domain.MaxEventHistory,
		`INSERT INTO events (at, type, detail) VALUES (?, ?, ?)`,
		formatTime(ev.At), ev.Type, string(raw))
}

// Events devuelve los últimos limit eventos, el más reciente primero.
func (s *SQLiteStorage) Events(ctx context.Context, limit int) ([]domain.HistoryEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, type, detail FROM events ORDER BY rowid DESC LIMIT ?`,
		clampLimit(limit, domain.MaxEventHistory))
	if err != nil {
		return nil, fmt.Errorf("storage.Events: query: %w", err)
	}
	defer rows.Close()

	events := []domain.HistoryEvent{}
	for rows.Next() {
		var (
			ev         domain.HistoryEvent
			at, detail string
		)
		if err := rows.Scan(&at, &ev.Type, &detail); err != nil {
			return nil, fmt.Errorf("storage.Events: scan row: %w", err)
		}
		ev.At = parseTime(at)
		ev.Detail = decodeDetails(detail)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// AppendPipelineRun agrega una entrada al histórico de runs (acotado a domain.MaxPipelineRuns).
func (s *SQLiteStorage) AppendPipelineRun(ctx context.Context, run domain.PipelineRun) error {
	return s.appendCapped(ctx, "storage.AppendPipelineRun", "pipeline_runs", domain.MaxPipelineRuns,
		`INSERT INTO pipeline_runs (run_id, at, status, message) VALUES (?, ?, ?, ?)`,
		run.RunID, formatTime(run.At), string(run.Status), run.Message)
}

// PipelineRuns devuelve los últimos limit runs, el más reciente primero.
func (s *SQLiteStorage) PipelineRuns(ctx context.Context, limit int) ([]domain.PipelineRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, at, status, message FROM pipeline_runs ORDER BY rowid DESC LIMIT ?`,
		clampLimit(limit, domain.MaxPipelineRuns))
	if err != nil {
		return nil, fmt.Errorf("storage.PipelineRuns: query: %w", err)
	}
	defer rows.Close()

	runs := []domain.PipelineRun{}
	for rows.Next() {
		var (
			run        domain.PipelineRun
			at, status string
		)
		if err := rows.Scan(&run.RunID, &at, &status, &run.Message); err != nil {
			return nil, fmt.Errorf("storage.PipelineRuns: scan row: %w", err)
		}
		run.At = parseTime(at)
		run.Status = domain.PipelineRunStatus(status)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// AppendAlert agrega una alerta al histórico (acotado a domain.MaxAlertHistory).
func (s *SQLiteStorage) AppendAlert(ctx context.Context, a domain.Alert) error {
	return s.appendCapped(ctx, "storage.AppendAlert", "alerts", domain.MaxAlertHistory,
		`INSERT INTO alerts (at, metric, threshold, message) VALUES (?, ?, ?, ?)`,
		formatTime(a.At), a.Metric, a.Threshold, a.Message)
}

// Alerts devuelve las últimas limit alertas, la más reciente primero.
func (s *SQLiteStorage) Alerts(ctx context.Context, limit int) ([]domain.Alert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, metric, threshold, message FROM alerts ORDER BY rowid DESC LIMIT ?`,
		clampLimit(limit, domain.MaxAlertHistory))
	if err != nil {
		return nil, fmt.Errorf("storage.Alerts: query: %w", err)
	}
	defer rows.Close()

	alerts := []domain.Alert{}
	for rows.Next() {
		var (
			a  domain.Alert
			at string
		)
		if err := rows.Scan(&at, &a.Metric, &a.Threshold, &a.Message); err != nil {
			return nil, fmt.Errorf("storage.Alerts: scan row: %w", err)
		}
		a.At = parseTime(at)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// appendCapped ejecuta el INSERT y recorta la tabla en la misma transacción.
func (s *SQLiteStorage) appendCapped(ctx context.Context, op, table string, keep int, insert string, args ...any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
		return fmt.Errorf("%s: insert: %w", op, err)
	}
	if err := capTable(ctx, tx, table, keep); err != nil {
		return fmt.Errorf("%s: cap %s: %w", op, table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

// clampLimit lleva limit a (0, ceiling]; 0 o negativo significa ceiling.
func clampLimit(limit, ceiling int) int {
	if limit <= 0 || limit > ceiling {
		return ceiling
	}
	return limit
}
