package product

import "time"

const (
	EventProductCreated       = "ProductCreated"
	EventProductUpdated       = "ProductUpdated"
	EventProductStatusChanged = "ProductStatusChanged"
)

type ProductCreated struct {
	ProductID   string    `json:"product_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Brand       string    `json:"brand"`
	CategoryID  string    `json:"category_id,omitempty"`
	Price       int64     `json:"price"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductUpdated changes catalog data. Orders already placed keep their own price snapshot.
type ProductUpdated struct {
	ProductID   string    `json:"product_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Brand       string    `json:"brand"`
	CategoryID  string    `json:"category_id,omitempty"`
	Price       int64     `json:"price"`
	ImageURL    string    `json:"image_url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductStatusChanged struct {
	ProductID string    `json:"product_id"`
	Status    Status    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
}
