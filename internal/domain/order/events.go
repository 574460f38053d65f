package order

import "time"

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventPaymentInitiated   = "PaymentInitiated"
	EventOrderPaid          = "OrderPaid"
)

type Item struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	Subtotal    int64  `json:"subtotal"`
}

// Tracking is one append-only entry of the order history
type Tracking struct {
	Status      Status    `json:"status"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Actor       string    `json:"actor"`
	CreatedAt   time.Time `json:"created_at"`
}

type OrderCreated struct {
	OrderID         string        `json:"order_id"`
	OrderCode       string        `json:"order_code"`
	UserID          string        `json:"user_id"`
	RecipientName   string        `json:"recipient_name"`
	Phone           string        `json:"phone"`
	ShippingAddress string        `json:"shipping_address"`
	Note            string        `json:"note,omitempty"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	Items           []Item        `json:"items"`
	TotalPrice      int64         `json:"total_price"`
	Tracking        Tracking      `json:"tracking"`
	CreatedAt       time.Time     `json:"created_at"`
}

// OrderStatusChanged carries the new status together with its tracking entry.
// PaymentStatus and PaidAt are set when a COD order is settled on completion.
type OrderStatusChanged struct {
	OrderID       string        `json:"order_id"`
	UserID        string        `json:"user_id"`
	From          Status        `json:"from"`
	To            Status        `json:"to"`
	Tracking      Tracking      `json:"tracking"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	ChangedAt     time.Time     `json:"changed_at"`
}

type PaymentInitiated struct {
	OrderID         string    `json:"order_id"`
	ProviderOrderID string    `json:"provider_order_id"`
	Amount          string    `json:"amount"`
	Currency        string    `json:"currency"`
	InitiatedAt     time.Time `json:"initiated_at"`
}

type OrderPaid struct {
	OrderID               string    `json:"order_id"`
	UserID                string    `json:"user_id"`
	ProviderOrderID       string    `json:"provider_order_id"`
	ProviderTransactionID string    `json:"provider_transaction_id"`
	Tracking              Tracking  `json:"tracking"`
	PaidAt                time.Time `json:"paid_at"`
}
