package domain

import (
	"fmt"
	"time"
)

// QueueStatus es el estado de un item en la cola de revisión.
type QueueStatus string

const (
	StatusPending  QueueStatus = "pending"
	StatusApproved QueueStatus = "approved"
	StatusRejected QueueStatus = "rejected"
)

// MaxQueueTextLen es el largo máximo de market_a / market_b en la cola.
const MaxQueueTextLen = 200

// QueueItem es una oportunidad esperando (o con) disposición.
// Nunca se borra; solo cambia de estado.
type QueueItem struct {
	ID           int64       `json:"id"`
	Status       QueueStatus `json:"status"`
	MarketA      string      `json:"market_a"`
	MarketB      string      `json:"market_b"`
	MarketAID    string      `json:"market_a_id"`
	MarketBID    string      `json:"market_b_id"`
	MinCost      float64     `json:"min_cost"`
	ProfitUSD    float64     `json:"profit_usd"`
	Asset        Asset       `json:"asset"`
	LiquidityUSD float64     `json:"liquidity_usd"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// QueueDraft son los datos con los que el pipeline inserta un item.
type QueueDraft struct {
	MarketA      string
	MarketB      string
	MarketAID    string
	MarketBID    string
	MinCost      float64
	ProfitUSD    float64
	Asset        Asset
	LiquidityUSD float64
}

// QueueAction es una acción de revisión.
type QueueAction string

const (
	ActionApprove QueueAction = "approve"
	ActionReject  QueueAction = "reject"
	ActionReopen  QueueAction = "reopen"
)

// ParseQueueAction valida una acción recibida desde fuera.
func ParseQueueAction(s string) (QueueAction, error) {
	switch a := QueueAction(s); a {
	case ActionApprove, ActionReject, ActionReopen:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// CanTransition indica si from → to es una transición legal:
// pending → approved, pending → rejected, {approved, rejected} → pending.
func CanTransition(from, to QueueStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected
	case StatusApproved, StatusRejected:
		return to == StatusPending
	}
	return false
}

// QueueEventKind identifica qué le pasó a un item.
type QueueEventKind string

const (
	QueueItemAdded    QueueEventKind = "added"
	QueueItemApproved QueueEventKind = "approved"
	QueueItemRejected QueueEventKind = "rejected"
	QueueItemReopened QueueEventKind = "reopened"
)

// QueueEvent se emite a los observers tras cada transición exitosa.
type QueueEvent struct {
	Kind   QueueEventKind
	Item   QueueItem
	Source TriggerSource
	At     time.Time
}

// Truncate corta s a n runas.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
