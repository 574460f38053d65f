package command

import (
	"github.com/example/phone-store/internal/domain/category"
	"github.com/example/phone-store/internal/domain/order"
	"github.com/example/phone-store/internal/domain/product"
)

// Product Commands
type CreateProduct struct {
	product.Input
	Stock int `json:"stock"`
}

type UpdateProduct struct {
	ProductID string `json:"product_id"`
	product.Input
}

type DeactivateProduct struct {
	ProductID string `json:"product_id"`
}

type AddStock struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Category Commands
type CreateCategory struct {
	category.Input
}

type UpdateCategory struct {
	CategoryID string `json:"category_id"`
	category.Input
}

type DeleteCategory struct {
	CategoryID string `json:"category_id"`
}

// Cart Commands
type AddToCart struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItem struct {
	UserID   string `json:"user_id"`
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type RemoveFromCart struct {
	UserID string `json:"user_id"`
	ItemID string `json:"item_id"`
}

type ClearCart struct {
	UserID string `json:"user_id"`
}

// Order Commands
type PlaceOrder struct {
	UserID        string              `json:"user_id"`
	Shipping      order.ShippingInfo  `json:"shipping"`
	PaymentMethod order.PaymentMethod `json:"payment_method"`
}

type CancelOrder struct {
	UserID  string `json:"user_id"`
	OrderID string `json:"order_id"`
}

type UpdateOrderStatus struct {
	OrderID     string       `json:"order_id"`
	Status      order.Status `json:"status"`
	Description string       `json:"description"`
	Location    string       `json:"location"`
	Actor       string       `json:"actor"`
}

// User Commands
type RegisterUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfile struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}

type ChangePassword struct {
	UserID          string `json:"user_id"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// SetUserStatus and DeleteUser are admin commands. ActorID is the admin
// issuing them.
type SetUserStatus struct {
	ActorID string `json:"actor_id"`
	UserID  string `json:"user_id"`
	Status  string `json:"status"`
}

type DeleteUser struct {
	ActorID string `json:"actor_id"`
	UserID  string `json:"user_id"`
}
