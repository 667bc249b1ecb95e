package domain

// Opportunity es un par de mercados dependientes con arbitraje según el LP.
type Opportunity struct {
	Asset        Asset
	MarketA      Market
	MarketB      Market
	Combinations []OutcomeCombination
	Result       ArbitrageResult
	ProfitUSD    float64 // (1 - MinCost) · ref_size_usd
}

// LiquidityUSD es la liquidez de la pata más delgada.
func (o Opportunity) LiquidityUSD() float64 {
	return min(o.MarketA.Liquidity, o.MarketB.Liquidity)
}

// Draft convierte la oportunidad en el item a insertar en la cola.
// Las patas compran el primer outcome de cada mercado.
func (o Opportunity) Draft() QueueDraft {
	return QueueDraft{
		MarketA:      Truncate(o.MarketA.Label(), MaxQueueTextLen),
		MarketB:      Truncate(o.MarketB.Label(), MaxQueueTextLen),
		MarketAID:    o.MarketA.YesTokenID(),
		MarketBID:    o.MarketB.YesTokenID(),
		MinCost:      o.Result.MinCost,
		ProfitUSD:    o.ProfitUSD,
		Asset:        o.Asset,
		LiquidityUSD: o.LiquidityUSD(),
	}
}
