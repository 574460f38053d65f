package inventory

import "time"

const (
	EventStockAdded    = "StockAdded"
	EventStockDeducted = "StockDeducted"
	EventStockRestored = "StockRestored"
)

type StockAdded struct {
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// StockDeducted is recorded once per order line when the order is placed.
type StockDeducted struct {
	ProductID  string    `json:"product_id"`
	OrderID    string    `json:"order_id"`
	Quantity   int       `json:"quantity"`
	DeductedAt time.Time `json:"deducted_at"`
}

// StockRestored gives back the quantity of a cancelled order line.
type StockRestored struct {
	ProductID  string    `json:"product_id"`
	OrderID    string    `json:"order_id"`
	Quantity   int       `json:"quantity"`
	RestoredAt time.Time `json:"restored_at"`
}
