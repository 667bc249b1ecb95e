package scanner

import (
	"strings"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// AssetGroup son los eventos de un subyacente, en el orden en que llegaron.
type AssetGroup struct {
	Asset  domain.Asset
	Events []domain.MarketEvent
}

// GroupByAsset clasifica los eventos por el título en minúsculas:
// "bitcoin"/"btc" → btc, si no "ethereum"/"eth " → eth, si no "solana"/" sol " → sol.
// El resto se descarta. Siempre devuelve los tres grupos en orden btc, eth, sol.
func GroupByAsset(events []domain.MarketEvent) []AssetGroup {
	byAsset := make(map[domain.Asset][]domain.MarketEvent, 3)
	for _, e := range events {
		if asset, ok := assetOf(e.Title); ok {
			byAsset[asset] = append(byAsset[asset], e)
		}
	}

	groups := make([]AssetGroup, 0, 3)
	for _, a := range domain.Assets() {
		groups = append(groups, AssetGroup{Asset: a, Events: byAsset[a]})
	}
	return groups
}

func assetOf(title string) (domain.Asset, bool) {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "bitcoin"), strings.Contains(t, "btc"):
		return domain.AssetBTC, true
	case strings.Contains(t, "ethereum"), strings.Contains(t, "eth "):
		return domain.AssetETH, true
	case strings.Contains(t, "solana"), strings.Contains(t, " sol "):
		return domain.AssetSOL, true
	}
	return "", false
}

// UsableMarkets devuelve los mercados binarios del evento con precios en (0,1)
// y ambos token ids, en el orden del evento.
func UsableMarkets(e domain.MarketEvent) []domain.Market {
	var out []domain.Market
	for _, m := range e.Markets {
		if m.Usable() {
			out = append(out, m)
		}
	}
	return out
}

// CollectAssetIDs junta hasta limit token ids distintos de los eventos, en orden.
// Son los ids a los que se suscribe el watch del websocket.
func CollectAssetIDs(events []domain.MarketEvent, limit int) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, e := range events {
		for _, m := range e.Markets {
			for _, id := range m.TokenIDs {
				if id == "" {
					continue
				}
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				ids = append(ids, id)
				if len(ids) >= limit {
					return ids
				}
			}
		}
	}
	return ids
}
