package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

const (
	gammaEventsPath = "/events"
	cryptoTagID     = "21"
	// Mínimo de eventos por pedido; la segunda consulta (más nuevos) siempre pide esto.
	minEventsPerFetch = 100
)

// FetchCryptoEvents devuelve los eventos cripto activos y no cerrados.
// Dispara en paralelo dos consultas (por volumen 24h y por id descendente, para
// incluir los recién creados) y las une por id, primero las de volumen.
func (c *Client) FetchCryptoEvents(ctx context.Context, limit int) ([]domain.MarketEvent, error) {
	var byVolume, byNewest []gammaEvent

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		evs, err := c.fetchEvents(gctx, max(limit, minEventsPerFetch), "volume24hr")
		byVolume = evs
		return err
	})
	g.Go(func() error {
		evs, err := c.fetchEvents(gctx, minEventsPerFetch, "id")
		byNewest = evs
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("gamma.FetchCryptoEvents: %w", err)
	}

	merged := make([]gammaEvent, 0, len(byVolume)+len(byNewest))
	seen := make(map[flexString]bool, cap(merged))
	for _, list := range [][]gammaEvent{byVolume, byNewest} {
		for _, e := range list {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			merged = append(merged, e)
		}
	}

	slog.Debug("gamma events fetched",
		"by_volume", len(byVolume),
		"by_newest", len(byNewest),
		"merged", len(merged),
	)
	return mapEvents(merged), nil
}

func (c *Client) fetchEvents(ctx context.Context, limit int, order string) ([]gammaEvent, error) {
	q := url.Values{}
	q.Set("tag_id", cryptoTagID)
	q.Set("active", "true")
	q.Set("closed", "false")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("order", order)
	q.Set("ascending", "false")

	var resp []gammaEvent
	if err := c.get(ctx, c.gammaLimiter, c.gammaBase+gammaEventsPath+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("fetch events order=%s: %w", order, err)
	}
	return resp, nil
}
