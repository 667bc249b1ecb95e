package domain

import "strings"

// Asset es la etiqueta del subyacente cripto al que pertenece un evento.
type Asset string

const (
	AssetBTC Asset = "btc"
	AssetETH Asset = "eth"
	AssetSOL Asset = "sol"
)

// Assets devuelve los grupos en el orden en que el pipeline los recorre.
func Assets() []Asset {
	return []Asset{AssetBTC, AssetETH, AssetSOL}
}

// MarketEvent es un evento de Gamma con sus mercados.
// Snapshot inmutable de un fetch; no se persiste más allá de un run.
type MarketEvent struct {
	ID      string
	Title   string
	Markets []Market
}

// Market es un mercado binario (dos outcomes) de un evento.
type Market struct {
	ID        string
	Question  string
	Outcomes  [2]string  // etiquetas tal como vienen de Gamma, ej. "Yes" / "No"
	Prices    [2]float64 // [YES, NO]; la suma no tiene por qué ser 1
	TokenIDs  [2]string  // [YES, NO] token ids del CLOB
	Liquidity float64    // USD
}

// YesPrice devuelve el precio del primer outcome.
func (m Market) YesPrice() float64 { return m.Prices[0] }

// NoPrice devuelve el precio del segundo outcome.
func (m Market) NoPrice() float64 { return m.Prices[1] }

// YesTokenID devuelve el token del primer outcome, que es el que se compra en cada pata.
func (m Market) YesTokenID() string { return m.TokenIDs[0] }

// Usable indica si el mercado tiene precios en (0,1), ambos token ids y
// liquidez no negativa.
func (m Market) Usable() bool {
	for i := range 2 {
		if !(m.Prices[i] > 0 && m.Prices[i] < 1) {
			return false
		}
		if strings.TrimSpace(m.TokenIDs[i]) == "" {
			return false
		}
	}
	return m.Liquidity >= 0
}

// Label devuelve la pregunta del mercado o su id si no tiene pregunta.
func (m Market) Label() string {
	if m.Question != "" {
		return m.Question
	}
	return m.ID
}

// OutcomesText devuelve las etiquetas como "Yes / No", con Yes/No por defecto.
func (m Market) OutcomesText() string {
	a, b := m.Outcomes[0], m.Outcomes[1]
	if a == "" {
		a = "Yes"
	}
	if b == "" {
		b = "No"
	}
	return a + " / " + b
}
