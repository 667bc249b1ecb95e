package domain

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// ArbitrageThreshold es el coste máximo (exclusivo) para considerar que hay arbitraje.
// Queda por debajo del break-even de 1 para no dar falsos positivos por redondeo.
const ArbitrageThreshold = 0.999

const simplexTolerance = 1e-10

// ArbitrageResult es el resultado del LP de cobertura completa (Layer 1).
type ArbitrageResult struct {
	HasArbitrage bool
	MinCost      float64 // 1 si el LP es infactible o no hay combinaciones
}

// HedgePrices son los precios de los cuatro contratos de la cobertura.
type HedgePrices struct {
	YesA float64
	NoA  float64
	YesB float64
	NoB  float64
}

// PricesFor arma los precios de la cobertura a partir de dos mercados.
func PricesFor(a, b Market) HedgePrices {
	return HedgePrices{
		YesA: a.YesPrice(),
		NoA:  a.NoPrice(),
		YesB: b.YesPrice(),
		NoB:  b.NoPrice(),
	}
}

// vector devuelve los costes en el orden de variables yes_A, no_A, yes_B, no_B.
func (p HedgePrices) vector() [4]float64 {
	return [4]float64{p.YesA, p.NoA, p.YesB, p.NoB}
}

// SolveArbitrage resuelve el LP:
//
//	min  Σ price_j · x_j
//	s.t. Σ a_ij · x_j ≥ 1   por cada combinación i
//	     x ≥ 0
//
// donde a_ij = 1 si la etiqueta de la variable j coincide con el outcome de la
// combinación i en su mercado. El óptimo es el coste mínimo de un conjunto de
// contratos que paga al menos 1 en cualquier estado conjunto admisible.
func SolveArbitrage(prices HedgePrices, combos []OutcomeCombination) ArbitrageResult {
	noArb := ArbitrageResult{MinCost: 1}
	if len(combos) == 0 {
		return noArb
	}

	rows := make([][4]float64, 0, len(combos))
	for _, c := range combos {
		var row [4]float64
		if side, ok := outcomeSide(c.MarketA); ok {
			row[side] = 1
		}
		if side, ok := outcomeSide(c.MarketB); ok {
			row[2+side] = 1
		}
		if row == ([4]float64{}) {
			// fila sin coeficientes: la restricción ≥ 1 no se puede cumplir
			return noArb
		}
		rows = append(rows, row)
	}

	minCost, err := solveCover(prices.vector(), rows)
	if err != nil {
		return noArb
	}
	return ArbitrageResult{
		HasArbitrage: minCost < ArbitrageThreshold,
		MinCost:      minCost,
	}
}

// solveCover pasa el LP a forma estándar (A·x − s = 1, x,s ≥ 0) y lo resuelve
// con el simplex de gonum. Las variables que no aparecen en ninguna fila se
// omiten: con precio positivo su valor óptimo es 0.
func solveCover(costs [4]float64, rows [][4]float64) (float64, error) {
	var used []int
	for j := range costs {
		for _, row := range rows {
			if row[j] != 0 {
				used = append(used, j)
				break
			}
		}
	}

	m, n := len(rows), len(used)
	c := make([]float64, n+m)
	for k, j := range used {
		c[k] = costs[j]
	}

	A := mat.NewDense(m, n+m, nil)
	b := make([]float64, m)
	for i, row := range rows {
		for k, j := range used {
			A.Set(i, k, row[j])
		}
		A.Set(i, n+i, -1)
		b[i] = 1
	}

	optF, _, err := lp.Simplex(c, A, b, simplexTolerance, nil)
	if err != nil {
		return 0, err
	}
	return optF, nil
}
