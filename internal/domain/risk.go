package domain

// Motivos de la validación Layer 3.
const (
	ReasonProfitBelowMargin = "profit < min_margin"
	ReasonLiquidityBelowMin = "liquidity < min"
	ReasonOK                = "ok"
)

// RiskParams son los umbrales externos de riesgo. Se leen frescos en cada validación.
type RiskParams struct {
	MinProfitMarginUSD    float64 `yaml:"min_profit_margin_usd" json:"min_profit_margin_usd"`
	MinLiquidityPerLegUSD float64 `yaml:"min_liquidity_per_leg_usd" json:"min_liquidity_per_leg_usd"`
	RefSizeUSD            float64 `yaml:"ref_size_usd" json:"ref_size_usd"`
}

// DefaultRiskParams devuelve los umbrales por defecto.
func DefaultRiskParams() RiskParams {
	return RiskParams{
		MinProfitMarginUSD:    0.05,
		MinLiquidityPerLegUSD: 100,
		RefSizeUSD:            100,
	}
}

// Layer3Result es el veredicto del gate de margen y liquidez.
type Layer3Result struct {
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

// ValidateExecution aplica los dos checks de Layer 3. Ambos deben pasar;
// el margen se evalúa primero.
func ValidateExecution(profitUSD, liquidityPerLegUSD, minMarginUSD, minLiquidityUSD float64) Layer3Result {
	if profitUSD < minMarginUSD {
		return Layer3Result{Reason: ReasonProfitBelowMargin}
	}
	if liquidityPerLegUSD < minLiquidityUSD {
		return Layer3Result{Reason: ReasonLiquidityBelowMin}
	}
	return Layer3Result{Passed: true, Reason: ReasonOK}
}

// Validate es ValidateExecution con los umbrales de p.
func (p RiskParams) Validate(profitUSD, liquidityPerLegUSD float64) Layer3Result {
	return ValidateExecution(profitUSD, liquidityPerLegUSD, p.MinProfitMarginUSD, p.MinLiquidityPerLegUSD)
}

// ProfitUSD es la ganancia garantizada de cubrir sizeUSD con coste unitario minCost.
func ProfitUSD(minCost, sizeUSD float64) float64 {
	return (1 - minCost) * sizeUSD
}
