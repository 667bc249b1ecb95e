package scanner

import "github.com/alejandrodnm/polyarb/internal/domain"

// DefaultTopEvents es la ventana de eventos por asset que se combinan en pares.
const DefaultTopEvents = 5

// Candidate es un par de mercados de eventos distintos del mismo asset.
type Candidate struct {
	Asset   domain.Asset
	EventA  domain.MarketEvent
	EventB  domain.MarketEvent
	MarketA domain.Market
	MarketB domain.Market
}

// PairID identifica el par por los ids de sus eventos.
func (c Candidate) PairID() string {
	return c.EventA.ID + "-" + c.EventB.ID
}

// Candidates arma los pares (i<j) entre los primeros topN eventos del grupo.
// De cada evento se toma el primer mercado usable; se descartan los pares sin
// mercado usable en algún lado o con liquidez por pata menor a minLiquidityUSD.
func Candidates(g AssetGroup, topN int, minLiquidityUSD float64) []Candidate {
	if topN <= 0 {
		topN = DefaultTopEvents
	}
	events := g.Events
	if len(events) > topN {
		events = events[:topN]
	}

	// primer mercado usable de cada evento, calculado una sola vez
	first := make([]*domain.Market, len(events))
	for i, e := range events {
		if ms := UsableMarkets(e); len(ms) > 0 {
			first[i] = &ms[0]
		}
	}

	var out []Candidate
	for i := range events {
		for j := i + 1; j < len(events); j++ {
			a, b := first[i], first[j]
			if a == nil || b == nil {
				continue
			}
			if a.Liquidity < minLiquidityUSD || b.Liquidity < minLiquidityUSD {
				continue
			}
			out = append(out, Candidate{
				Asset:   g.Asset,
				EventA:  events[i],
				EventB:  events[j],
				MarketA: *a,
				MarketB: *b,
			})
		}
	}
	return out
}
