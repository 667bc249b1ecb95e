package execution

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ports"
)

// Submitter envía las patas de una cobertura según el modo de ejecución.
type Submitter struct {
	live ports.LegPlacer
}

// NewSubmitter crea el submitter. live puede ser nil si nunca se opera en live;
// en ese caso las patas live fallan con un mensaje.
func NewSubmitter(live ports.LegPlacer) *Submitter {
	return &Submitter{live: live}
}

// Submit en paper o dry run no toca el venue y siempre tiene éxito.
// En live envía todas las patas en paralelo; el éxito exige que todas pasen y
// el mensaje de fallo es el de la primera pata fallida en orden.
func (s *Submitter) Submit(ctx context.Context, legs []domain.OrderLeg, state domain.ModeState) domain.SubmitResult {
	size := sizeOf(legs)
	if state.Simulated() {
		return domain.SubmitResult{
			Success: true,
			Message: fmt.Sprintf("paper:paper legs=%d size_usd=%s", len(legs), size),
		}
	}
	if len(legs) == 0 {
		return domain.SubmitResult{Message: "no legs"}
	}
	if s.live == nil {
		return domain.SubmitResult{Message: "live submitter unavailable: missing credentials"}
	}

	results := make([]domain.SubmitResult, len(legs))
	var g errgroup.Group
	for i, leg := range legs {
		g.Go(func() error {
			results[i] = s.live.PlaceLeg(ctx, leg)
			return nil
		})
	}
	_ = g.Wait() // PlaceLeg no devuelve error: los fallos van en el resultado

	summary := fmt.Sprintf("live legs=%d size_usd=%s", len(legs), size)
	for _, r := range results {
		if !r.Success {
			if r.Message == "" {
				return domain.SubmitResult{Message: summary}
			}
			return domain.SubmitResult{Message: r.Message}
		}
	}
	return domain.SubmitResult{Success: true, Message: summary}
}

// sizeOf formatea el nocional por pata como lo hace el resto de los mensajes (1, no 1.00).
func sizeOf(legs []domain.OrderLeg) string {
	size := domain.ExecutionSizeUSD
	if len(legs) > 0 {
		size = legs[0].SizeUSD
	}
	return fmt.Sprintf("%g", size)
}
