package domain

// Constantes de política para la ejecución; no dependen de los precios detectados.
const (
	ProbePrice       = 0.5
	ExecutionSizeUSD = 1.0
)

// Side es el lado de una orden.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderLeg es una pata de la cobertura.
type OrderLeg struct {
	TokenID string
	Price   float64
	SizeUSD float64
	Side    Side
}

// SubmitResult es el resultado de enviar una pata o el conjunto de patas.
type SubmitResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HedgeLegs arma las dos patas BUY de un item de la cola.
func HedgeLegs(item QueueItem) []OrderLeg {
	return []OrderLeg{
		{TokenID: item.MarketAID, Price: ProbePrice, SizeUSD: ExecutionSizeUSD, Side: SideBuy},
		{TokenID: item.MarketBID, Price: ProbePrice, SizeUSD: ExecutionSizeUSD, Side: SideBuy},
	}
}
