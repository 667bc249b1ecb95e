package polymarket

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// mapEvents convierte los DTOs de Gamma a domain.MarketEvent.
// Los mercados que no son binarios se descartan; el evento se conserva aunque quede vacío.
func mapEvents(raw []gammaEvent) []domain.MarketEvent {
	events := make([]domain.MarketEvent, 0, len(raw))
	for _, e := range raw {
		ev := domain.MarketEvent{
			ID:    string(e.ID),
			Title: e.Title,
		}
		for _, gm := range e.Markets {
			if m, ok := mapMarket(gm); ok {
				ev.Markets = append(ev.Markets, m)
			}
		}
		events = append(events, ev)
	}
	return events
}

// mapMarket convierte un gammaMarket a domain.Market. ok=false si los precios
// o los token ids no forman un par.
func mapMarket(gm gammaMarket) (domain.Market, bool) {
	prices, ok := decodeStringPair(gm.OutcomePrices)
	if !ok {
		return domain.Market{}, false
	}
	tokens, ok := decodeStringPair(gm.ClobTokenIDs)
	if !ok {
		return domain.Market{}, false
	}

	m := domain.Market{
		ID:        string(gm.ID),
		Question:  gm.Question,
		Outcomes:  [2]string{"Yes", "No"},
		TokenIDs:  tokens,
		Liquidity: liquidityUSD(float64(gm.Liquidity)),
	}
	if outcomes, ok := decodeStringPair(gm.Outcomes); ok {
		m.Outcomes = outcomes
	}
	for i, p := range prices {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.Market{}, false
		}
		m.Prices[i] = v
	}
	return m, true
}

// decodeStringPair decodifica un array JSON embebido en un string y devuelve
// sus dos primeros elementos. Acepta elementos string o numéricos.
func decodeStringPair(s string) ([2]string, bool) {
	var out [2]string
	if strings.TrimSpace(s) == "" {
		return out, false
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil || len(raw) < 2 {
		return out, false
	}
	for i := range 2 {
		var str string
		if err := json.Unmarshal(raw[i], &str); err == nil {
			out[i] = str
			continue
		}
		var num json.Number
		if err := json.Unmarshal(raw[i], &num); err != nil {
			return out, false
		}
		out[i] = num.String()
	}
	return out, true
}

// liquidityUSD normaliza la liquidez: NaN, Inf o negativa → 0.
func liquidityUSD(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
