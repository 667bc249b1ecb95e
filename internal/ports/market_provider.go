package ports

import (
	"context"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// EventProvider obtiene los eventos cripto activos desde Gamma.
type EventProvider interface {
	// FetchCryptoEvents devuelve los eventos activos y no cerrados,
	// primero los de mayor volumen 24h. limit es el mínimo a pedir.
	FetchCryptoEvents(ctx context.Context, limit int) ([]domain.MarketEvent, error)
}
