package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyarb/config"
	"github.com/alejandrodnm/polyarb/internal/adapters/storage"
	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/execution"
	"github.com/alejandrodnm/polyarb/internal/monitor"
	"github.com/alejandrodnm/polyarb/internal/review"
	"github.com/alejandrodnm/polyarb/internal/server"
	"github.com/alejandrodnm/polyarb/internal/server/handler"
)

type app struct {
	srv   *httptest.Server
	queue *review.Queue
}

func newApp(t *testing.T) *app {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	risk := config.NewRiskFile(filepath.Join(t.TempDir(), "risk_params.yaml"))
	thresholds := domain.AlertThresholds{DrawdownPctGt: 15}

	mon := monitor.New(db, thresholds)
	queue := review.NewQueue(db, execution.NewAuditObserver(db), mon)
	modes := execution.NewModes(db, db)
	executor := execution.NewExecutor(queue, risk, modes, execution.NewSubmitter(nil), mon, db)

	s := server.NewServer(server.Config{}, server.Handlers{
		Health:     handler.NewHealthHandler(),
		Queue:      handler.NewQueueHandler(queue, executor, logger),
		Mode:       handler.NewModeHandler(modes, logger),
		Config:     handler.NewConfigHandler(risk, thresholds, logger),
		Monitoring: handler.NewMonitoringHandler(mon, db, logger),
	}, logger)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return &app{srv: ts, queue: queue}
}

func (a *app) addItems(t *testing.T, n int) {
	t.Helper()
	for i := range n {
		_, err := a.queue.Add(context.Background(), domain.QueueDraft{
			MarketA:      "Will BTC close above 100k?",
			MarketB:      "Will BTC close above 90k?",
			MarketAID:    "tokA",
			MarketBID:    "tokB",
			MinCost:      0.7,
			ProfitUSD:    30,
			Asset:        domain.AssetBTC,
			LiquidityUSD: 500 + float64(i),
		}, domain.SourcePipeline)
		require.NoError(t, err)
	}
}

func (a *app) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rdr)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(bytes.TrimSpace(raw)) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (a *app) getList(t *testing.T, path string) []any {
	t.Helper()
	resp, err := http.Get(a.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	status, body := a.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestQueue_PaperApproveThenNotFound(t *testing.T) {
	a := newApp(t)
	a.addItems(t, 3)

	status, body := a.do(t, http.MethodPost, "/api/queue", `{"action":"approve","id":3}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "approve", body["action"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["executed"])
	assert.Equal(t, "paper", body["execution_mode"])
	assert.True(t, strings.HasPrefix(body["message"].(string), "paper:"))

	status, body = a.do(t, http.MethodGet, "/api/queue", "")
	require.Equal(t, http.StatusOK, status)
	items := body["items"].([]any)
	require.Len(t, items, 3)
	assert.Equal(t, "approved", items[2].(map[string]any)["status"])
	assert.Equal(t, "pending", items[0].(map[string]any)["status"])

	status, body = a.do(t, http.MethodGet, "/api/queue?pending=true", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["items"].([]any), 2)

	status, body = a.do(t, http.MethodPost, "/api/queue", `{"action":"approve","id":3}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, body["error"])

	status, body = a.do(t, http.MethodGet, "/api/metrics", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["executions_count"])
	assert.EqualValues(t, 100, body["execution_success_rate"])

	approvals := a.getList(t, "/api/audit?action=queue_approve_exec")
	require.Len(t, approvals, 1)
}

func TestQueue_ApproveRejectedByLayer3(t *testing.T) {
	a := newApp(t)
	a.addItems(t, 1)

	status, body := a.do(t, http.MethodPatch, "/api/config/risk", `{"min_liquidity_per_leg_usd": 5000}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 5000, body["min_liquidity_per_leg_usd"])
	assert.EqualValues(t, 0.05, body["min_profit_margin_usd"], "los campos ausentes se conservan")

	status, body = a.do(t, http.MethodPost, "/api/queue", `{"action":"approve","id":1}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, domain.ReasonLiquidityBelowMin, body["error"])

	status, body = a.do(t, http.MethodGet, "/api/queue?pending=true", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["items"].([]any), 1, "el item sigue pending")

	fails := a.getList(t, "/api/audit?action=queue_approve_layer3_fail")
	assert.Len(t, fails, 1)
}

func TestQueue_RejectAndReopen(t *testing.T) {
	a := newApp(t)
	a.addItems(t, 1)

	status, _ := a.do(t, http.MethodPost, "/api/queue", `{"action":"reopen","id":1}`)
	assert.Equal(t, http.StatusNotFound, status, "reabrir un pending")

	status, body := a.do(t, http.MethodPost, "/api/queue", `{"action":"reject","itemId":1}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "reject", body["action"])

	status, _ = a.do(t, http.MethodPost, "/api/queue", `{"action":"reject","id":1}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = a.do(t, http.MethodPost, "/api/queue", `{"action":"reopen","id":1}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "reopen", body["action"])

	events := a.getList(t, "/api/events")
	require.Len(t, events, 3)
	assert.Equal(t, "queue_reopen", events[0].(map[string]any)["type"])
}

func TestQueue_BadRequests(t *testing.T) {
	a := newApp(t)
	a.addItems(t, 1)

	for _, body := range []string{
		`not json`,
		`{"action":"approve"}`,
		`{"id":1}`,
		`{"action":"delete","id":1}`,
		`{"action":"approve","id":"1"}`,
	} {
		status, _ := a.do(t, http.MethodPost, "/api/queue", body)
		assert.Equal(t, http.StatusBadRequest, status, body)
	}
}

func TestExecutionMode(t *testing.T) {
	a := newApp(t)

	status, body := a.do(t, http.MethodGet, "/api/execution-mode", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "paper", body["EXECUTION_MODE"])
	assert.Equal(t, true, body["DRY_RUN"])
	assert.Equal(t, "manual", body["TRIGGER_MODE"])

	status, body = a.do(t, http.MethodPost, "/api/execution-mode", `{"mode":"live","trigger_mode":"auto"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "live", body["EXECUTION_MODE"])
	assert.Equal(t, false, body["DRY_RUN"])
	assert.Equal(t, "auto", body["TRIGGER_MODE"])

	status, body = a.do(t, http.MethodPost, "/api/execution-mode", `{"DRY_RUN":true}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "live", body["EXECUTION_MODE"])
	assert.Equal(t, true, body["DRY_RUN"])

	status, _ = a.do(t, http.MethodPost, "/api/execution-mode", `{"EXECUTION_MODE":"margin"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	changes := a.getList(t, "/api/audit?action=execution_mode_change")
	assert.Len(t, changes, 2)
}

func TestConfigRisk(t *testing.T) {
	a := newApp(t)

	status, body := a.do(t, http.MethodGet, "/api/config/risk", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 100, body["ref_size_usd"])

	status, body = a.do(t, http.MethodPatch, "/api/config/risk", `{"risk_params":{"ref_size_usd": 250}}`)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 250, body["ref_size_usd"])

	status, _ = a.do(t, http.MethodPatch, "/api/config/risk", `{"ref_size_usd": -1}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = a.do(t, http.MethodGet, "/api/config/risk", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 250, body["ref_size_usd"])

	status, body = a.do(t, http.MethodGet, "/api/config/alerts", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 15, body["drawdown_pct_gt"])
}

func TestMonitoringLists(t *testing.T) {
	a := newApp(t)

	for _, path := range []string{
		"/api/metrics/history",
		"/api/pipeline-runs",
		"/api/alerts?limit=10",
		"/api/audit",
		"/api/events",
	} {
		assert.NotNil(t, a.getList(t, path), path)
	}
}
