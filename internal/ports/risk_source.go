package ports

import "github.com/alejandrodnm/polyarb/internal/domain"

// RiskSource entrega los umbrales de riesgo vigentes. Se consulta en cada validación.
type RiskSource interface {
	LoadRisk() (domain.RiskParams, error)
}
