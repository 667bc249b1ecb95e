package ports

import (
	"context"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// LegPlacer envía una pata de la cobertura al venue.
type LegPlacer interface {
	// PlaceLeg nunca devuelve error: los fallos van en SubmitResult.Message.
	PlaceLeg(ctx context.Context, leg domain.OrderLeg) domain.SubmitResult
}
