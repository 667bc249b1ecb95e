package domain

import "time"

// Límites de retención del monitor.
const (
	MaxRateTimestamps  = 120
	MaxMetricsHistory  = 500
	MaxEventHistory    = 100
	MaxPipelineRuns    = 30
	MaxAlertHistory    = 200
	DefaultDrawdownPct = 15.0
)

// Metrics son los contadores acumulados de oportunidades y ejecuciones.
type Metrics struct {
	OpportunitiesCount int64     `json:"opportunities_count"`
	ExecutionsCount    int64     `json:"executions_count"`
	ExecutionsSuccess  int64     `json:"executions_success"`
	TotalPnL           float64   `json:"total_pnl"`
	PeakPnL            float64   `json:"peak_pnl"`
	AvgLatencyMs       float64   `json:"avg_latency_ms"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// AddExecution acumula una ejecución: pnl, pico y latencia media.
func (m Metrics) AddExecution(success bool, pnlUSD, latencyMs float64) Metrics {
	m.ExecutionsCount++
	if success {
		m.ExecutionsSuccess++
	}
	m.TotalPnL += pnlUSD
	m.PeakPnL = max(m.PeakPnL, m.TotalPnL)
	n := float64(m.ExecutionsCount)
	m.AvgLatencyMs = (m.AvgLatencyMs*(n-1) + latencyMs) / n
	return m
}

// DrawdownPct es la caída desde el pico en porcentaje. Con pico 0 se usa 1 como base.
func (m Metrics) DrawdownPct() float64 {
	peak := m.PeakPnL
	if peak == 0 {
		peak = 1
	}
	return (peak - m.TotalPnL) / peak * 100
}

// SuccessRatePct es el porcentaje de ejecuciones exitosas (0 sin ejecuciones).
func (m Metrics) SuccessRatePct() float64 {
	if m.ExecutionsCount == 0 {
		return 0
	}
	return float64(m.ExecutionsSuccess) / float64(m.ExecutionsCount) * 100
}

// Point devuelve el punto de histórico correspondiente a m.
func (m Metrics) Point() MetricsPoint {
	return MetricsPoint{
		At:                 m.UpdatedAt,
		OpportunitiesCount: m.OpportunitiesCount,
		ExecutionsCount:    m.ExecutionsCount,
		TotalPnL:           m.TotalPnL,
		DrawdownPct:        m.DrawdownPct(),
		AvgLatencyMs:       m.AvgLatencyMs,
	}
}

// MetricsPoint es una foto de las métricas en el histórico.
type MetricsPoint struct {
	At                 time.Time `json:"ts"`
	OpportunitiesCount int64     `json:"opportunities_count"`
	ExecutionsCount    int64     `json:"executions_count"`
	TotalPnL           float64   `json:"total_pnl"`
	DrawdownPct        float64   `json:"drawdown_pct"`
	AvgLatencyMs       float64   `json:"avg_latency_ms"`
}

// MetricsSnapshot son las métricas con los valores derivados y las alertas activas.
type MetricsSnapshot struct {
	Metrics
	ExecutionSuccessRate float64  `json:"execution_success_rate"`
	DrawdownPct          float64  `json:"drawdown_pct"`
	OpportunitiesPerMin  int      `json:"opportunities_per_min"`
	ExecutionsPerMin     int      `json:"executions_per_min"`
	Alerts               []string `json:"alerts"`
}

// RateKind distingue las series de timestamps usadas para las tasas por minuto.
type RateKind string

const (
	RateOpportunity RateKind = "opportunity"
	RateExecution   RateKind = "execution"
)

// HistoryEvent es un evento del pipeline o de la cola para el histórico.
type HistoryEvent struct {
	At     time.Time      `json:"ts"`
	Type   string         `json:"type"`
	Detail map[string]any `json:"detail"`
}

// PipelineRunStatus es el estado de un run del pipeline.
type PipelineRunStatus string

const (
	RunStarted   PipelineRunStatus = "started"
	RunCompleted PipelineRunStatus = "completed"
	RunError     PipelineRunStatus = "error"
)

// PipelineRun es una entrada del histórico de runs.
type PipelineRun struct {
	RunID   string            `json:"run_id"`
	At      time.Time         `json:"ts"`
	Status  PipelineRunStatus `json:"status"`
	Message string            `json:"message"`
}

// AlertThresholds configura las alertas sobre las métricas.
// ExecutionRateLt en 0 desactiva la alerta de tasa de éxito.
type AlertThresholds struct {
	DrawdownPctGt   float64 `yaml:"drawdown_pct_gt" json:"drawdown_pct_gt"`
	ExecutionRateLt float64 `yaml:"execution_rate_lt" json:"execution_rate_lt"`
}

// Alert es una alerta disparada.
type Alert struct {
	At        time.Time `json:"ts"`
	Metric    string    `json:"metric"`
	Threshold float64   `json:"threshold"`
	Message   string    `json:"message"`
}
