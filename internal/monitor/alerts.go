package monitor

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

const (
	metricDrawdown    = "drawdown_pct"
	metricSuccessRate = "execution_success_rate"
)

// Evaluate devuelve las alertas que disparan las métricas m con los umbrales t.
//
// El drawdown solo alerta con un pico positivo: sin ganancias previas la base
// es 1 y cualquier pérdida chica daría un porcentaje enorme.
// La tasa de éxito solo alerta si el umbral está configurado y hubo ejecuciones.
func Evaluate(m domain.Metrics, t domain.AlertThresholds, at time.Time) []domain.Alert {
	drawdownGt := t.DrawdownPctGt
	if drawdownGt <= 0 {
		drawdownGt = domain.DefaultDrawdownPct
	}

	var alerts []domain.Alert
	if dd := m.DrawdownPct(); m.PeakPnL > 0 && dd > drawdownGt {
		alerts = append(alerts, domain.Alert{
			At:        at,
			Metric:    metricDrawdown,
			Threshold: drawdownGt,
			Message:   fmt.Sprintf("drawdown %.2f%% > %.2f%%", dd, drawdownGt),
		})
	}
	if t.ExecutionRateLt > 0 && m.ExecutionsCount > 0 {
		if rate := m.SuccessRatePct(); rate < t.ExecutionRateLt {
			alerts = append(alerts, domain.Alert{
				At:        at,
				Metric:    metricSuccessRate,
				Threshold: t.ExecutionRateLt,
				Message:   fmt.Sprintf("execution success rate %.1f%% < %.1f%%", rate, t.ExecutionRateLt),
			})
		}
	}
	return alerts
}
