package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// Console imprime el estado de polyarb en tablas. Implementa
// ports.QueueObserver y ports.AlertSender.
type Console struct {
	out io.Writer
}

// NewConsole crea un Console que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un Console para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Out devuelve el writer de salida.
func (c *Console) Out() io.Writer { return c.out }

// OnQueueEvent imprime una línea por transición de la cola.
func (c *Console) OnQueueEvent(_ context.Context, ev domain.QueueEvent) error {
	it := ev.Item
	fmt.Fprintf(c.out, "[%s] queue %-8s #%d %s | %s / %s | min_cost=%.4f profit=$%.2f (%s)\n",
		ev.At.Format("15:04:05"), ev.Kind, it.ID, it.Asset,
		truncate(it.MarketA, 40), truncate(it.MarketB, 40),
		it.MinCost, it.ProfitUSD, ev.Source)
	return nil
}

// SendAlerts imprime las alertas disparadas.
func (c *Console) SendAlerts(_ context.Context, alerts []domain.Alert) error {
	for _, a := range alerts {
		fmt.Fprintf(c.out, "[%s] !! ALERT %s: %s\n", a.At.Format("15:04:05"), a.Metric, a.Message)
	}
	return nil
}

// PrintQueue imprime la cola de revisión.
func (c *Console) PrintQueue(items []domain.QueueItem) {
	if len(items) == 0 {
		fmt.Fprintln(c.out, "  queue is empty")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Status", "Asset", "Market A", "Market B", "MinCost", "Profit$", "Liq$", "Created")
	for _, it := range items {
		table.Append(
			fmt.Sprintf("%d", it.ID),
			string(it.Status),
			string(it.Asset),
			truncate(it.MarketA, 38),
			truncate(it.MarketB, 38),
			fmt.Sprintf("%.4f", it.MinCost),
			fmt.Sprintf("$%.2f", it.ProfitUSD),
			fmt.Sprintf("$%.0f", it.LiquidityUSD),
			it.CreatedAt.Local().Format("01-02 15:04"),
		)
	}
	table.Render()
}

// PrintPipelineRuns imprime el histórico de runs.
func (c *Console) PrintPipelineRuns(runs []domain.PipelineRun) {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "  no pipeline runs yet")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Run", "Status", "Message")
	for _, r := range runs {
		table.Append(
			r.At.Local().Format("01-02 15:04:05"),
			shortID(r.RunID),
			string(r.Status),
			truncate(r.Message, 60),
		)
	}
	table.Render()
}

// PrintMetrics imprime la foto de métricas con sus alertas activas.
func (c *Console) PrintMetrics(s domain.MetricsSnapshot) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")
	table.Append("opportunities", fmt.Sprintf("%d", s.OpportunitiesCount))
	table.Append("executions", fmt.Sprintf("%d (%d ok)", s.ExecutionsCount, s.ExecutionsSuccess))
	table.Append("success rate", fmt.Sprintf("%.1f%%", s.ExecutionSuccessRate))
	table.Append("total pnl", fmt.Sprintf("$%.4f", s.TotalPnL))
	table.Append("peak pnl", fmt.Sprintf("$%.4f", s.PeakPnL))
	table.Append("drawdown", fmt.Sprintf("%.2f%%", s.DrawdownPct))
	table.Append("avg latency", fmt.Sprintf("%.0f ms", s.AvgLatencyMs))
	table.Append("opps/min", fmt.Sprintf("%d", s.OpportunitiesPerMin))
	table.Append("execs/min", fmt.Sprintf("%d", s.ExecutionsPerMin))
	table.Render()

	for _, a := range s.Alerts {
		fmt.Fprintf(c.out, "  !! %s\n", a)
	}
}

// PrintAudit imprime registros de auditoría, el más reciente primero.
func (c *Console) PrintAudit(records []domain.AuditRecord) {
	if len(records) == 0 {
		fmt.Fprintln(c.out, "  audit log is empty")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Action", "Details")
	for _, r := range records {
		table.Append(
			r.At.Local().Format("01-02 15:04:05"),
			string(r.Action),
			truncate(formatDetails(r.Details), 70),
		)
	}
	table.Render()
}

// PrintMode imprime el modo de ejecución vigente.
func (c *Console) PrintMode(s domain.ModeState) {
	fmt.Fprintf(c.out, "  EXECUTION_MODE=%s DRY_RUN=%t TRIGGER_MODE=%s (simulated=%t)\n",
		s.ExecutionMode, s.DryRun, s.TriggerMode, s.Simulated())
}

// PrintPrice imprime una actualización de precio del websocket.
func (c *Console) PrintPrice(at time.Time, assetID, label string, price, bid, ask float64) {
	fmt.Fprintf(c.out, "[%s] %-40s %s price=%.4f bid=%.4f ask=%.4f\n",
		at.Local().Format("15:04:05"), truncate(label, 40), shortID(assetID), price, bid, ask)
}

// --- helpers ---

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func shortID(id string) string {
	if len(id) > 10 {
		return id[:8] + ".."
	}
	return id
}

func formatDetails(d map[string]any) string {
	if len(d) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(d))
	for k, v := range d {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	slices.Sort(parts)
	return strings.Join(parts, " ")
}
