package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCombinations_PlainArray(t *testing.T) {
	got := ParseCombinations(`[{"market_a_outcome":"Evet","market_b_outcome":"Hayır"}]`)
	require.Len(t, got, 1)
	assert.Equal(t, OutcomeCombination{MarketA: "Evet", MarketB: "Hayır"}, got[0])
}

func TestParseCombinations_JSONFencePreferred(t *testing.T) {
	text := "```\nnot json\n```\nsome text\n```json\n[{\"market_a_outcome\":\"Yes\",\"market_b_outcome\":\"No\"}]\n```"
	got := ParseCombinations(text)
	require.Len(t, got, 1)
	assert.Equal(t, "Yes", got[0].MarketA)
	assert.Equal(t, "No", got[0].MarketB)
}

func TestParseCombinations_BareFence(t *testing.T) {
	text := "Here you go:\n```\n[{\"market_a_outcome\":\"Evet\",\"market_b_outcome\":\"Evet\"},{\"market_a_outcome\":\"Hayır\",\"market_b_outcome\":\"Hayır\"}]\n```"
	got := ParseCombinations(text)
	assert.Len(t, got, 2)
}

func TestParseCombinations_FailSoft(t *testing.T) {
	cases := []string{
		"",
		"no json here",
		`{"market_a_outcome":"Evet"}`,
		"```json\n[{broken\n```",
		"null",
	}
	for _, text := range cases {
		got := ParseCombinations(text)
		assert.NotNil(t, got, "input %q", text)
		assert.Empty(t, got, "input %q", text)
	}
}

func TestParseCombinations_NonObjectElementsAreDroppedByValidation(t *testing.T) {
	got := ParseCombinations(`["Evet", 3, {"market_a_outcome": true, "market_b_outcome": "No"}, {"market_a_outcome":"No","market_b_outcome":"Yes"}]`)
	require.Len(t, got, 4)

	valid := ValidateCombinations(got)
	require.Len(t, valid, 1)
	assert.Equal(t, OutcomeCombination{MarketA: "No", MarketB: "Yes"}, valid[0])
}

func TestNormalizeOutcome(t *testing.T) {
	assert.Equal(t, OutcomeYes, NormalizeOutcome("yes"))
	assert.Equal(t, OutcomeYes, NormalizeOutcome(" YES "))
	assert.Equal(t, OutcomeNo, NormalizeOutcome("No"))
	assert.Equal(t, "Evet", NormalizeOutcome("Evet"))
	assert.Equal(t, "maybe", NormalizeOutcome("maybe"))
}

func TestNormalizeCombinations_DoesNotMutateInput(t *testing.T) {
	in := []OutcomeCombination{{MarketA: "yes", MarketB: "NO"}}
	out := NormalizeCombinations(in)
	assert.Equal(t, "yes", in[0].MarketA)
	assert.Equal(t, OutcomeCombination{MarketA: OutcomeYes, MarketB: OutcomeNo}, out[0])
}

func TestCheckDependency(t *testing.T) {
	all := []OutcomeCombination{
		{MarketA: OutcomeYes, MarketB: OutcomeYes},
		{MarketA: OutcomeYes, MarketB: OutcomeNo},
		{MarketA: OutcomeNo, MarketB: OutcomeYes},
		{MarketA: OutcomeNo, MarketB: OutcomeNo},
	}

	tests := []struct {
		name      string
		combos    []OutcomeCombination
		valid     bool
		dependent bool
	}{
		{"none", nil, false, false},
		{"only invalid labels", []OutcomeCombination{{MarketA: "Belki", MarketB: "Evet"}}, false, false},
		{"one", all[:1], true, true},
		{"two", all[:2], true, true},
		{"three", all[:3], true, true},
		{"all four", all, true, false},
		{"three plus invalid", append(append([]OutcomeCombination{}, all[:3]...), OutcomeCombination{MarketA: "?", MarketB: "?"}), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckDependency(tt.combos, BinaryOutcomes, BinaryOutcomes)
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.dependent, got.Dependent)
		})
	}
}
