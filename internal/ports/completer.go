package ports

import "context"

// CompletionRequest es un prompt con sus parámetros de generación.
type CompletionRequest struct {
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Completer es la capacidad externa de completado de texto (LLM).
type Completer interface {
	// Complete devuelve el texto generado tal cual, sin interpretar.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
