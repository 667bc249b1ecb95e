package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateExecution(t *testing.T) {
	tests := []struct {
		name      string
		profit    float64
		liquidity float64
		want      Layer3Result
	}{
		{"passes", 10, 500, Layer3Result{Passed: true, Reason: ReasonOK}},
		{"exact thresholds pass", 0.05, 100, Layer3Result{Passed: true, Reason: ReasonOK}},
		{"low profit", 0.03, 500, Layer3Result{Reason: ReasonProfitBelowMargin}},
		{"low liquidity", 10, 99.99, Layer3Result{Reason: ReasonLiquidityBelowMin}},
		{"both fail reports margin first", 0.01, 1, Layer3Result{Reason: ReasonProfitBelowMargin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateExecution(tt.profit, tt.liquidity, 0.05, 100))
		})
	}
}

func TestValidateExecution_MonotonicInMargin(t *testing.T) {
	const profit = 3.0
	passedBefore := true
	for margin := 0.0; margin <= 6; margin += 0.25 {
		got := ValidateExecution(profit, 1000, margin, 100)
		if !passedBefore {
			assert.False(t, got.Passed, "margin %.2f flipped back to passed", margin)
		}
		if margin > profit {
			assert.False(t, got.Passed)
		}
		passedBefore = got.Passed
	}
}

func TestRiskParams_Validate(t *testing.T) {
	p := DefaultRiskParams()
	assert.True(t, p.Validate(ProfitUSD(0.9, p.RefSizeUSD), 150).Passed)
	assert.False(t, p.Validate(ProfitUSD(0.9997, p.RefSizeUSD), 150).Passed)
}

func TestProfitUSD(t *testing.T) {
	assert.InDelta(t, 10.0, ProfitUSD(0.9, 100), 1e-9)
	assert.InDelta(t, 0.1, ProfitUSD(0.9, 1), 1e-9)
	assert.InDelta(t, 0.0, ProfitUSD(1, 100), 1e-9)
}
