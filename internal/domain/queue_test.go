package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	legal := map[[2]QueueStatus]bool{
		{StatusPending, StatusApproved}: true,
		{StatusPending, StatusRejected}: true,
		{StatusApproved, StatusPending}: true,
		{StatusRejected, StatusPending}: true,
	}
	all := []QueueStatus{StatusPending, StatusApproved, StatusRejected}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, legal[[2]QueueStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition("unknown", StatusPending))
}

func TestParseQueueAction(t *testing.T) {
	a, err := ParseQueueAction("reopen")
	require.NoError(t, err)
	assert.Equal(t, ActionReopen, a)

	_, err = ParseQueueAction("delete")
	assert.True(t, errors.Is(err, ErrInvalidAction))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "Hay", Truncate("Hayır", 3))
}

func TestOpportunity_Draft(t *testing.T) {
	long := make([]rune, 250)
	for i := range long {
		long[i] = 'ş'
	}
	opp := Opportunity{
		Asset:     AssetBTC,
		MarketA:   Market{ID: "1", Question: string(long), TokenIDs: [2]string{"ya", "na"}, Liquidity: 300},
		MarketB:   Market{ID: "2", TokenIDs: [2]string{"yb", "nb"}, Liquidity: 150},
		Result:    ArbitrageResult{HasArbitrage: true, MinCost: 0.7},
		ProfitUSD: 30,
	}

	d := opp.Draft()
	assert.Len(t, []rune(d.MarketA), MaxQueueTextLen)
	assert.Equal(t, "2", d.MarketB)
	assert.Equal(t, "ya", d.MarketAID)
	assert.Equal(t, "yb", d.MarketBID)
	assert.InDelta(t, 150.0, d.LiquidityUSD, 1e-9)
	assert.Equal(t, AssetBTC, d.Asset)
}

func TestHedgeLegs(t *testing.T) {
	legs := HedgeLegs(QueueItem{MarketAID: "a", MarketBID: "b", MinCost: 0.2})
	require.Len(t, legs, 2)
	for _, l := range legs {
		assert.Equal(t, ProbePrice, l.Price)
		assert.Equal(t, ExecutionSizeUSD, l.SizeUSD)
		assert.Equal(t, SideBuy, l.Side)
	}
	assert.Equal(t, "a", legs[0].TokenID)
	assert.Equal(t, "b", legs[1].TokenID)
}
