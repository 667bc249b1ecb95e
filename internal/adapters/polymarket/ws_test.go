package polymarket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyarb/internal/adapters/polymarket"
)

func TestMarketWatcher_SubscribesAndDispatches(t *testing.T) {
	upgrader := websocket.Upgrader{}
	subs := make(chan map[string]any, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()

		_, data, err := conn.ReadMessage()
		if !assert.NoError(t, err) {
			return
		}
		var sub map[string]any
		assert.NoError(t, json.Unmarshal(data, &sub))
		subs <- sub

		conn.WriteMessage(websocket.TextMessage, []byte(
			`[{"event_type":"last_trade_price","asset_id":"tok-1","price":"0.42"}]`,
		))
		// mantener la conexión hasta que el cliente cierre
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	updates := make(chan polymarket.PriceUpdate, 1)
	done := make(chan error, 1)
	w := polymarket.NewMarketWatcher("ws" + strings.TrimPrefix(srv.URL, "http"))
	go func() {
		done <- w.Watch(ctx, []string{"tok-1", "tok-2"}, func(u polymarket.PriceUpdate) {
			select {
			case updates <- u:
			default:
			}
		})
	}()

	select {
	case sub := <-subs:
		assert.Equal(t, "market", sub["type"])
		assert.Equal(t, []any{"tok-1", "tok-2"}, sub["assets_ids"])
	case <-ctx.Done():
		t.Fatal("no subscription received")
	}

	select {
	case u := <-updates:
		assert.Equal(t, "tok-1", u.AssetID)
		assert.InDelta(t, 0.42, u.Price, 1e-9)
	case <-ctx.Done():
		t.Fatal("no update received")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestMarketWatcher_NoAssets(t *testing.T) {
	err := polymarket.NewMarketWatcher("ws://127.0.0.1:1").Watch(context.Background(), nil, func(polymarket.PriceUpdate) {})
	assert.Error(t, err)
}
