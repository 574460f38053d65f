package cart

import "time"

const (
	EventItemAdded           = "ItemAddedToCart"
	EventItemQuantityUpdated = "CartItemQuantityUpdated"
	EventItemRemoved         = "ItemRemovedFromCart"
	EventCartCleared         = "CartCleared"
	EventItemsCheckedOut     = "CartItemsCheckedOut"
)

// Reasons carried by CartCleared
const (
	ClearReasonCheckout = "checkout"
	ClearReasonUser     = "user"
)

// ItemAddedToCart adds a line, or increments the line that already holds the product.
type ItemAddedToCart struct {
	CartID      string    `json:"cart_id"`
	UserID      string    `json:"user_id"`
	ItemID      string    `json:"item_id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	UnitPrice   int64     `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	AddedAt     time.Time `json:"added_at"`
}

type CartItemQuantityUpdated struct {
	CartID    string    `json:"cart_id"`
	ItemID    string    `json:"item_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ItemRemovedFromCart struct {
	CartID    string    `json:"cart_id"`
	ItemID    string    `json:"item_id"`
	RemovedAt time.Time `json:"removed_at"`
}

type CartCleared struct {
	CartID    string    `json:"cart_id"`
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	ClearedAt time.Time `json:"cleared_at"`
}

// CheckedOutLine is the quantity of one cart line taken into an order.
type CheckedOutLine struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// CartItemsCheckedOut removes ordered quantities from a cart that changed
// after the order read it. Lines added in between are kept.
type CartItemsCheckedOut struct {
	CartID       string           `json:"cart_id"`
	UserID       string           `json:"user_id"`
	OrderID      string           `json:"order_id"`
	Lines        []CheckedOutLine `json:"lines"`
	CheckedOutAt time.Time        `json:"checked_out_at"`
}
