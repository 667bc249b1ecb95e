package polymarket

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- Gamma API ---

// gammaEvent es un item de GET /events.
type gammaEvent struct {
	ID      flexString    `json:"id"`
	Slug    string        `json:"slug"`
	Title   string        `json:"title"`
	Markets []gammaMarket `json:"markets"`
}

// gammaMarket es un mercado dentro de un evento.
// outcomes, outcomePrices y clobTokenIds llegan como arrays JSON codificados en string.
type gammaMarket struct {
	ID            flexString `json:"id"`
	Question      string     `json:"question"`
	Slug          string     `json:"slug"`
	Outcomes      string     `json:"outcomes"`
	OutcomePrices string     `json:"outcomePrices"`
	ClobTokenIDs  string     `json:"clobTokenIds"`
	Liquidity     flexFloat  `json:"liquidity"`
	Active        bool       `json:"active"`
	Closed        bool       `json:"closed"`
}

// flexFloat acepta número, string numérico o null. Cualquier otra cosa queda en 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			*f = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// flexString acepta ids que Gamma a veces manda como número.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	*s = flexString(b)
	return nil
}

// --- CLOB API ---

type tickSizeResponse struct {
	MinimumTickSize json.Number `json:"minimum_tick_size"`
}

type negRiskResponse struct {
	NegRisk bool `json:"neg_risk"`
}
