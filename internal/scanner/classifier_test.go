package scanner_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/scanner"
)

func TestBuildPrompt(t *testing.T) {
	a := makeMarket("a", 0.4, 0.6, 100)
	b := makeMarket("b", 0.3, 0.7, 100)
	b.Question = ""
	b.Outcomes = [2]string{}

	p := scanner.BuildPrompt(a, b)

	assert.True(t, strings.HasPrefix(p, "Aşağıda iki tahmin piyasası"))
	assert.Contains(t, p, "Piyasa A: Question a\n  Koşullar: Yes / No")
	assert.Contains(t, p, "Piyasa B: b\n  Koşullar: Yes / No", "sin pregunta se usa el id")
	assert.Contains(t, p, `[{"market_a_outcome": "X", "market_b_outcome": "Y"}, ...]`)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		valid     bool
		dependent bool
		kept      int
	}{
		{"exclusive pair", exclusiveReply, true, true, 2},
		{"all four", allFourReply, true, false, 4},
		{"garbage", "no idea", false, false, 0},
		{
			"unknown labels dropped",
			`[{"market_a_outcome": "Maybe", "market_b_outcome": "Yes"}, {"market_a_outcome": "YES", "market_b_outcome": " no "}]`,
			true, true, 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := scanner.NewClassifier(&mockCompleter{reply: tt.reply}, scanner.ClassifierConfig{})
			got, err := c.Classify(context.Background(), makeMarket("a", 0.4, 0.6, 1), makeMarket("b", 0.3, 0.7, 1))
			require.NoError(t, err)
			assert.Equal(t, tt.reply, got.Raw)
			assert.Equal(t, tt.valid, got.Check.Valid)
			assert.Equal(t, tt.dependent, got.Check.Dependent)
			assert.Len(t, got.Check.Combinations, tt.kept)
			for _, combo := range got.Check.Combinations {
				assert.True(t, domain.IsOutcomeLabel(combo.MarketA))
				assert.True(t, domain.IsOutcomeLabel(combo.MarketB))
			}
		})
	}
}
