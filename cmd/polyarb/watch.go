package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/alejandrodnm/polyarb/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/scanner"
)

const watchMaxAssets = 50

// watch se suscribe al canal de mercado del CLOB para los tokens de los
// eventos cripto y muestra cada cambio de precio.
func watch(ctx context.Context, a *app) error {
	events, err := a.client.FetchCryptoEvents(ctx, a.cfg.Pipeline.EventLimit)
	if err != nil {
		return err
	}
	ids := scanner.CollectAssetIDs(events, watchMaxAssets)
	if len(ids) == 0 {
		return fmt.Errorf("no usable markets to watch")
	}

	labels := tokenLabels(events)
	w := polymarket.NewMarketWatcher(a.cfg.API.WSURL)
	err = w.Watch(ctx, ids, func(u polymarket.PriceUpdate) {
		a.console.PrintPrice(u.At, u.AssetID, labels[u.AssetID], u.Price, u.BestBid, u.BestAsk)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// tokenLabels mapea token id → "pregunta [outcome]".
func tokenLabels(events []domain.MarketEvent) map[string]string {
	labels := make(map[string]string)
	for _, e := range events {
		for _, m := range e.Markets {
			for i, tok := range m.TokenIDs {
				if tok != "" {
					labels[tok] = fmt.Sprintf("%s [%s]", m.Label(), m.Outcomes[i])
				}
			}
		}
	}
	return labels
}
