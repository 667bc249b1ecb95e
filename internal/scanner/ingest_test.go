package scanner_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/scanner"
)

func makeMarket(id string, yes, no, liquidity float64) domain.Market {
	return domain.Market{
		ID:        id,
		Question:  "Question " + id,
		Outcomes:  [2]string{"Yes", "No"},
		Prices:    [2]float64{yes, no},
		TokenIDs:  [2]string{id + "-yes", id + "-no"},
		Liquidity: liquidity,
	}
}

func makeEvent(id, title string, markets ...domain.Market) domain.MarketEvent {
	return domain.MarketEvent{ID: id, Title: title, Markets: markets}
}

func TestGroupByAsset(t *testing.T) {
	events := []domain.MarketEvent{
		makeEvent("1", "Bitcoin above 100k on Friday?"),
		makeEvent("2", "Will ETH hit 5k?"),
		makeEvent("3", "US election winner"),
		makeEvent("4", "Solana ETF approved?"),
		makeEvent("5", "BTC vs Ethereum dominance"),
		makeEvent("6", "Ethena yield"),
		makeEvent("7", "Ethereum upgrade date"),
		makeEvent("8", "Will sol flip eth"),
	}

	groups := scanner.GroupByAsset(events)
	require.Len(t, groups, 3)

	ids := func(g scanner.AssetGroup) []string {
		var out []string
		for _, e := range g.Events {
			out = append(out, e.ID)
		}
		return out
	}

	assert.Equal(t, domain.AssetBTC, groups[0].Asset)
	assert.Equal(t, []string{"1", "5"}, ids(groups[0]))
	assert.Equal(t, domain.AssetETH, groups[1].Asset)
	assert.Equal(t, []string{"2", "7"}, ids(groups[1]))
	assert.Equal(t, domain.AssetSOL, groups[2].Asset)
	assert.Equal(t, []string{"4", "8"}, ids(groups[2]))
}

func TestGroupByAsset_EmptyGroupsKeepOrder(t *testing.T) {
	groups := scanner.GroupByAsset(nil)
	require.Len(t, groups, 3)
	for _, g := range groups {
		assert.Empty(t, g.Events)
	}
}

func TestUsableMarkets(t *testing.T) {
	noToken := makeMarket("c", 0.5, 0.5, 100)
	noToken.TokenIDs[1] = ""

	e := makeEvent("1", "Bitcoin",
		makeMarket("a", 0, 1, 100), // precio fuera de (0,1)
		makeMarket("b", 0.4, 0.6, 100),
		noToken,
		makeMarket("d", 0.2, 0.8, 0),
	)

	got := scanner.UsableMarkets(e)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "d", got[1].ID)
}

func TestCollectAssetIDs(t *testing.T) {
	events := []domain.MarketEvent{
		makeEvent("1", "Bitcoin", makeMarket("a", 0.4, 0.6, 1), makeMarket("b", 0.4, 0.6, 1)),
		makeEvent("2", "Bitcoin", makeMarket("a", 0.4, 0.6, 1)),
	}

	assert.Equal(t, []string{"a-yes", "a-no", "b-yes", "b-no"}, scanner.CollectAssetIDs(events, 50))
	assert.Equal(t, []string{"a-yes", "a-no", "b-yes"}, scanner.CollectAssetIDs(events, 3))
}

func TestCandidates_TopNPairs(t *testing.T) {
	var events []domain.MarketEvent
	for i := range 7 {
		id := fmt.Sprint(i)
		events = append(events, makeEvent(id, "Bitcoin "+id, makeMarket("m"+id, 0.4, 0.6, 500)))
	}
	g := scanner.AssetGroup{Asset: domain.AssetBTC, Events: events}

	pairs := scanner.Candidates(g, 5, 100)
	require.Len(t, pairs, 10)
	assert.Equal(t, "0-1", pairs[0].PairID())
	assert.Equal(t, "3-4", pairs[9].PairID())
	for _, p := range pairs {
		assert.Less(t, p.EventA.ID, p.EventB.ID)
		assert.Equal(t, domain.AssetBTC, p.Asset)
	}
}

func TestCandidates_FirstUsableMarketAndLiquidity(t *testing.T) {
	g := scanner.AssetGroup{Asset: domain.AssetETH, Events: []domain.MarketEvent{
		makeEvent("1", "ETH ", makeMarket("dead", 1, 0, 900), makeMarket("live", 0.3, 0.7, 900)),
		makeEvent("2", "ETH ", makeMarket("thin", 0.5, 0.5, 99)),
		makeEvent("3", "ETH "),
		makeEvent("4", "ETH ", makeMarket("ok", 0.6, 0.4, 100)),
	}}

	pairs := scanner.Candidates(g, 5, 100)
	require.Len(t, pairs, 1)
	assert.Equal(t, "1-4", pairs[0].PairID())
	assert.Equal(t, "live", pairs[0].MarketA.ID)
	assert.Equal(t, "ok", pairs[0].MarketB.ID)
}

func TestCandidates_IsDeterministic(t *testing.T) {
	g := scanner.AssetGroup{Asset: domain.AssetSOL, Events: []domain.MarketEvent{
		makeEvent("1", " sol ", makeMarket("a", 0.3, 0.7, 500)),
		makeEvent("2", " sol ", makeMarket("b", 0.3, 0.7, 500)),
		makeEvent("3", " sol ", makeMarket("c", 0.3, 0.7, 500)),
	}}
	assert.Equal(t, scanner.Candidates(g, 5, 100), scanner.Candidates(g, 5, 100))
}
