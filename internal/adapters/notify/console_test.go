package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyarb/internal/adapters/notify"
	"github.com/alejandrodnm/polyarb/internal/domain"
)

func makeItem(id int64, status domain.QueueStatus) domain.QueueItem {
	return domain.QueueItem{
		ID:           id,
		Status:       status,
		MarketA:      "Will Bitcoin be above $100,000 on March 31?",
		MarketB:      "Will Bitcoin be above $90,000 on March 31?",
		MarketAID:    "tokA",
		MarketBID:    "tokB",
		MinCost:      0.7,
		ProfitUSD:    30,
		Asset:        domain.AssetBTC,
		LiquidityUSD: 1200,
		CreatedAt:    time.Now(),
	}
}

func TestConsole_PrintQueue(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	c.PrintQueue([]domain.QueueItem{makeItem(1, domain.StatusPending), makeItem(2, domain.StatusRejected)})

	out := buf.String()
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "rejected")
	assert.Contains(t, out, "0.7000")
	assert.Contains(t, out, "$30.00")
}

func TestConsole_PrintQueue_Empty(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf).PrintQueue(nil)
	assert.Contains(t, buf.String(), "queue is empty")
}

func TestConsole_OnQueueEventAndAlerts(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	err := c.OnQueueEvent(context.Background(), domain.QueueEvent{
		Kind:   domain.QueueItemAdded,
		Item:   makeItem(7, domain.StatusPending),
		Source: domain.SourcePipeline,
		At:     time.Now(),
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "#7")
	assert.Contains(t, buf.String(), "pipeline")

	err = c.SendAlerts(context.Background(), []domain.Alert{{At: time.Now(), Metric: "drawdown_pct", Message: "drawdown 20.00% > 15.00%"}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "ALERT drawdown_pct")
}

func TestConsole_PrintMetricsAndRuns(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	c.PrintMetrics(domain.MetricsSnapshot{
		Metrics:              domain.Metrics{OpportunitiesCount: 4, ExecutionsCount: 2, ExecutionsSuccess: 1, TotalPnL: 0.3},
		ExecutionSuccessRate: 50,
		Alerts:               []string{"success rate 50.0% < 80.0%"},
	})
	c.PrintPipelineRuns([]domain.PipelineRun{{RunID: "0123456789abcdef", At: time.Now(), Status: domain.RunCompleted, Message: "Kuyruğa 1 kayıt eklendi"}})

	out := buf.String()
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "!! success rate")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "01234567..")
}
