package polymarket

// ws.go: suscripción al canal market del CLOB para seguir en vivo los
// precios de los tokens escaneados.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultMarketWSURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

	wsWriteWait         = 10 * time.Second
	wsPingPeriod        = 10 * time.Second
	wsReadWait          = 60 * time.Second
	wsReconnectDelay    = 2 * time.Second
	wsMaxReconnectDelay = 60 * time.Second
)

// PriceUpdate es un cambio de precio de un token recibido por websocket.
type PriceUpdate struct {
	AssetID   string
	EventType string // book, price_change, last_trade_price
	Price     float64
	BestBid   float64
	BestAsk   float64
	At        time.Time
}

// wsMessage cubre los campos que usamos de los tres tipos de evento.
type wsMessage struct {
	EventType    string          `json:"event_type"`
	AssetID      string          `json:"asset_id"`
	Price        string          `json:"price"`
	Bids         []wsLevel       `json:"bids"`
	Asks         []wsLevel       `json:"asks"`
	PriceChanges []wsPriceChange `json:"price_changes"`
}

type wsLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type wsPriceChange struct {
	AssetID string `json:"asset_id"`
	Price   string `json:"price"`
	BestBid string `json:"best_bid"`
	BestAsk string `json:"best_ask"`
}

// MarketWatcher mantiene la conexión al canal market y reconecta con backoff.
type MarketWatcher struct {
	url            string
	dialer         websocket.Dialer
	reconnectDelay time.Duration
}

// NewMarketWatcher crea un watcher; url vacío usa el endpoint de producción.
func NewMarketWatcher(url string) *MarketWatcher {
	if url == "" {
		url = defaultMarketWSURL
	}
	return &MarketWatcher{
		url:            url,
		dialer:         websocket.Dialer{HandshakeTimeout: 15 * time.Second},
		reconnectDelay: wsReconnectDelay,
	}
}

// Watch se suscribe a assetIDs y llama a onUpdate por cada cambio hasta que
// ctx se cancele. Las desconexiones se reintentan con backoff exponencial.
func (w *MarketWatcher) Watch(ctx context.Context, assetIDs []string, onUpdate func(PriceUpdate)) error {
	if len(assetIDs) == 0 {
		return fmt.Errorf("ws.Watch: no asset ids")
	}

	delay := w.reconnectDelay
	for {
		err := w.session(ctx, assetIDs, onUpdate)
		if ctx.Err() != nil {
			return nil
		}
		slog.Warn("market websocket disconnected, reconnecting", "err", err, "delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil
		}
		delay = min(delay*2, wsMaxReconnectDelay)
	}
}

// session corre una conexión completa: dial, subscribe, read loop.
func (w *MarketWatcher) session(ctx context.Context, assetIDs []string, onUpdate func(PriceUpdate)) error {
	conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	sub, _ := json.Marshal(map[string]any{
		"type":       "market",
		"assets_ids": assetIDs,
	})
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	slog.Info("market websocket subscribed", "assets", len(assetIDs))

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.TextMessage, []byte("PING")); err != nil {
					return
				}
			case <-ctx.Done():
				conn.Close()
				return
			case <-done:
				return
			}
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(wsReadWait))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		for _, u := range parseWSMessage(data, time.Now().UTC()) {
			onUpdate(u)
		}
	}
}

// parseWSMessage acepta un objeto o un array de objetos. PONG y mensajes
// desconocidos no producen actualizaciones.
func parseWSMessage(data []byte, at time.Time) []PriceUpdate {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || (data[0] != '{' && data[0] != '[') {
		return nil
	}

	var msgs []wsMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &msgs); err != nil {
			return nil
		}
	} else {
		var m wsMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil
		}
		msgs = []wsMessage{m}
	}

	var out []PriceUpdate
	for _, m := range msgs {
		switch m.EventType {
		case "book":
			u := PriceUpdate{AssetID: m.AssetID, EventType: m.EventType, At: at}
			if len(m.Bids) > 0 {
				u.BestBid = parseFloat(m.Bids[len(m.Bids)-1].Price)
			}
			if len(m.Asks) > 0 {
				u.BestAsk = parseFloat(m.Asks[len(m.Asks)-1].Price)
			}
			if u.BestBid > 0 && u.BestAsk > 0 {
				u.Price = (u.BestBid + u.BestAsk) / 2
			}
			out = append(out, u)
		case "price_change":
			for _, pc := range m.PriceChanges {
				out = append(out, PriceUpdate{
					AssetID:   pc.AssetID,
					EventType: m.EventType,
					Price:     parseFloat(pc.Price),
					BestBid:   parseFloat(pc.BestBid),
					BestAsk:   parseFloat(pc.BestAsk),
					At:        at,
				})
			}
		case "last_trade_price":
			out = append(out, PriceUpdate{
				AssetID:   m.AssetID,
				EventType: m.EventType,
				Price:     parseFloat(m.Price),
				At:        at,
			})
		}
	}
	return out
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
