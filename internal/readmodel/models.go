package readmodel

import "time"

// Collection names shared by the projector, the query handler and the read stores.
const (
	CollectionProducts   = "products"
	CollectionInventory  = "inventory"
	CollectionOrders     = "orders"
	CollectionOrderCodes = "order_codes"
	CollectionUsers      = "users"
	CollectionCategories = "categories"
)

// ProductReadModel is the read model for products
type ProductReadModel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Brand       string    `json:"brand,omitempty"`
	CategoryID  string    `json:"category_id,omitempty"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	Status      string    `json:"status"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryReadModel is the read model for categories. ProductCount is not
// stored; the query side fills it from the products collection.
type CategoryReadModel struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url,omitempty"`
	ProductCount int       `json:"product_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// InventoryReadModel is the read model for stock levels
type InventoryReadModel struct {
	ProductID string    `json:"product_id"`
	Stock     int       `json:"stock"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItemReadModel struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	Subtotal    int64  `json:"subtotal"`
}

type TrackingReadModel struct {
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Actor       string    `json:"actor"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderReadModel is the read model used by order listings, code lookup and admin search
type OrderReadModel struct {
	ID                    string               `json:"id"`
	OrderCode             string               `json:"order_code"`
	UserID                string               `json:"user_id"`
	RecipientName         string               `json:"recipient_name"`
	Phone                 string               `json:"phone"`
	ShippingAddress       string               `json:"shipping_address"`
	Note                  string               `json:"note,omitempty"`
	PaymentMethod         string               `json:"payment_method"`
	PaymentStatus         string               `json:"payment_status"`
	Status                string               `json:"status"`
	TotalPrice            int64                `json:"total_price"`
	Items                 []OrderItemReadModel `json:"items"`
	Trackings             []TrackingReadModel  `json:"trackings"`
	ProviderOrderID       string               `json:"provider_order_id,omitempty"`
	ProviderTransactionID string               `json:"provider_transaction_id,omitempty"`
	PaidAt                *time.Time           `json:"paid_at,omitempty"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

// UserReadModel is the read model for users
type UserReadModel struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
