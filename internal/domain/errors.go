package domain

import "errors"

var (
	// ErrNotFound se devuelve cuando un registro no existe.
	ErrNotFound = errors.New("not found")
	// ErrNotFoundOrProcessed se devuelve al actuar sobre un item que no existe
	// o que no está en el estado que la transición exige.
	ErrNotFoundOrProcessed = errors.New("not found or already processed")
	// ErrMissingTokenID se devuelve cuando un item no tiene token id en alguna pata.
	ErrMissingTokenID = errors.New("market token ID eksik (market_a_id veya market_b_id)")
	// ErrInvalidMode se devuelve para un modo de ejecución desconocido.
	ErrInvalidMode = errors.New("invalid execution mode")
	// ErrInvalidAction se devuelve para una acción de cola desconocida.
	ErrInvalidAction = errors.New("invalid queue action")
)

// Layer3Error envuelve un rechazo de Layer 3 en el momento de la aprobación.
type Layer3Error struct {
	Reason string
}

func (e *Layer3Error) Error() string {
	return "layer3: " + e.Reason
}
