package command

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/example/phone-store/internal/auth"
	"github.com/example/phone-store/internal/domain/cart"
	"github.com/example/phone-store/internal/domain/category"
	"github.com/example/phone-store/internal/domain/inventory"
	"github.com/example/phone-store/internal/domain/order"
	"github.com/example/phone-store/internal/domain/product"
	"github.com/example/phone-store/internal/domain/user"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/example/phone-store/internal/readmodel"
)

type Handler struct {
	productSvc   *product.Service
	categorySvc  *category.Service
	cartSvc      *cart.Service
	orderSvc     *order.Service
	inventorySvc *inventory.Service
	userSvc      *user.Service
	readModels   store.UserReadStore
}

func NewHandler(
	productSvc *product.Service,
	categorySvc *category.Service,
	cartSvc *cart.Service,
	orderSvc *order.Service,
	inventorySvc *inventory.Service,
	userSvc *user.Service,
	readModels store.UserReadStore,
) *Handler {
	return &Handler{
		productSvc:   productSvc,
		categorySvc:  categorySvc,
		cartSvc:      cartSvc,
		orderSvc:     orderSvc,
		inventorySvc: inventorySvc,
		userSvc:      userSvc,
		readModels:   readModels,
	}
}

// CreateProduct creates a product and its initial stock
func (h *Handler) CreateProduct(ctx context.Context, cmd CreateProduct) (*product.Product, error) {
	if cmd.Stock < 0 {
		return nil, inventory.ErrInvalidQuantity
	}
	if err := h.checkCategory(ctx, cmd.CategoryID); err != nil {
		return nil, err
	}
	p, err := h.productSvc.Create(ctx, cmd.Input)
	if err != nil {
		return nil, err
	}
	if cmd.Stock > 0 {
		if _, err := h.inventorySvc.AddStock(ctx, p.ID, cmd.Stock); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// UpdateProduct changes catalog fields. Orders keep their own price snapshot.
func (h *Handler) UpdateProduct(ctx context.Context, cmd UpdateProduct) (*product.Product, error) {
	if err := h.checkCategory(ctx, cmd.CategoryID); err != nil {
		return nil, err
	}
	return h.productSvc.Update(ctx, cmd.ProductID, cmd.Input)
}

// checkCategory accepts an empty id, meaning uncategorized
func (h *Handler) checkCategory(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	if _, err := h.categorySvc.Get(ctx, categoryID); err != nil {
		if errors.Is(err, category.ErrCategoryNotFound) {
			return category.ErrUnknownCategory
		}
		return err
	}
	return nil
}

func (h *Handler) CreateCategory(ctx context.Context, cmd CreateCategory) (*category.Category, error) {
	return h.categorySvc.Create(ctx, cmd.Input)
}

func (h *Handler) UpdateCategory(ctx context.Context, cmd UpdateCategory) (*category.Category, error) {
	return h.categorySvc.Update(ctx, cmd.CategoryID, cmd.Input)
}

// DeleteCategory refuses while an active product is filed under the
// category. Inactive products keep their reference.
func (h *Handler) DeleteCategory(ctx context.Context, cmd DeleteCategory) error {
	products, err := h.readModels.GetAll(readmodel.CollectionProducts)
	if err != nil {
		return err
	}
	for _, item := range products {
		if p := item.(*readmodel.ProductReadModel); p.CategoryID == cmd.CategoryID && p.Status == string(product.StatusActive) {
			return category.ErrCategoryInUse
		}
	}
	return h.categorySvc.Delete(ctx, cmd.CategoryID)
}

func (h *Handler) DeactivateProduct(ctx context.Context, cmd DeactivateProduct) (*product.Product, error) {
	return h.productSvc.SetStatus(ctx, cmd.ProductID, product.StatusInactive)
}

func (h *Handler) AddStock(ctx context.Context, cmd AddStock) (*inventory.Inventory, error) {
	if _, err := h.productSvc.Get(ctx, cmd.ProductID); err != nil {
		return nil, err
	}
	return h.inventorySvc.AddStock(ctx, cmd.ProductID, cmd.Quantity)
}

func (h *Handler) GetCart(ctx context.Context, userID string) (*cart.Cart, error) {
	return h.cartSvc.Get(ctx, userID)
}

// AddToCart snapshots the current name and price of an active product
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) (*cart.Cart, error) {
	if cmd.Quantity < 1 {
		return nil, cart.ErrInvalidQuantity
	}
	p, err := h.productSvc.GetAvailable(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	return h.cartSvc.AddItem(ctx, cmd.UserID, cart.ProductSnapshot{ID: p.ID, Name: p.Name, Price: p.Price}, cmd.Quantity)
}

func (h *Handler) UpdateCartItem(ctx context.Context, cmd UpdateCartItem) (*cart.Cart, error) {
	return h.cartSvc.UpdateQuantity(ctx, cmd.UserID, cmd.ItemID, cmd.Quantity)
}

func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) (*cart.Cart, error) {
	return h.cartSvc.RemoveItem(ctx, cmd.UserID, cmd.ItemID)
}

func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) (*cart.Cart, error) {
	return h.cartSvc.Clear(ctx, cmd.UserID, cart.ClearReasonUser)
}

// PlaceOrder turns the user's cart into an order. Every check runs before
// anything is written. Once OrderCreated is stored, stock is deducted and the
// ordered lines leave the cart. Both steps retry version conflicts. A failure
// left after that is logged and does not undo the order, since failing the
// request would invite a duplicate order.
func (h *Handler) PlaceOrder(ctx context.Context, cmd PlaceOrder) (*order.Order, error) {
	c, err := h.cartSvc.Get(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, order.ErrCartEmpty
	}
	if err := order.ValidateShipping(cmd.Shipping, cmd.PaymentMethod); err != nil {
		return nil, err
	}

	items := make([]order.Item, 0, len(c.Items))
	for _, line := range c.Items {
		if _, err := h.productSvc.GetAvailable(ctx, line.ProductID); err != nil {
			return nil, err
		}
		if err := h.inventorySvc.Check(ctx, line.ProductID, line.Quantity); err != nil {
			return nil, err
		}
		items = append(items, order.Item{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Price:       line.UnitPrice,
			Quantity:    line.Quantity,
		})
	}

	o, err := h.orderSvc.Create(ctx, order.CreateInput{
		UserID:        cmd.UserID,
		Shipping:      cmd.Shipping,
		PaymentMethod: cmd.PaymentMethod,
		Items:         items,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Order] Created %s (%s) for user %s, total %d VND", o.OrderCode, o.ID, o.UserID, o.TotalPrice)

	for _, item := range o.Items {
		if err := h.inventorySvc.Deduct(ctx, item.ProductID, o.ID, item.Quantity); err != nil {
			log.Printf("[Order] Failed to deduct stock of %s for order %s: %v", item.ProductID, o.ID, err)
		}
	}
	if _, err := h.cartSvc.CheckOut(ctx, cmd.UserID, o.ID, c); err != nil {
		log.Printf("[Order] Failed to check out cart of user %s for order %s: %v", cmd.UserID, o.ID, err)
	}

	return o, nil
}

// GetOrder returns the authoritative order if it belongs to userID.
// Someone else's order is reported as not found.
func (h *Handler) GetOrder(ctx context.Context, userID, orderID string) (*order.Order, error) {
	o, err := h.orderSvc.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

// GetOrderAsAdmin returns any order
func (h *Handler) GetOrderAsAdmin(ctx context.Context, orderID string) (*order.Order, error) {
	return h.orderSvc.Get(ctx, orderID)
}

// CancelOrder is the customer cancel. Stock of every line is restored.
func (h *Handler) CancelOrder(ctx context.Context, cmd CancelOrder) (*order.Order, error) {
	if _, err := h.GetOrder(ctx, cmd.UserID, cmd.OrderID); err != nil {
		return nil, err
	}
	o, err := h.orderSvc.Cancel(ctx, cmd.OrderID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	h.restoreStock(ctx, o)
	return o, nil
}

// UpdateOrderStatus is the admin transition
func (h *Handler) UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatus) (*order.Order, error) {
	o, err := h.orderSvc.Transition(ctx, cmd.OrderID, cmd.Status, order.TransitionInput{
		Actor:       cmd.Actor,
		Description: cmd.Description,
		Location:    cmd.Location,
	})
	if err != nil {
		return nil, err
	}
	if o.Status == order.StatusCancelled {
		h.restoreStock(ctx, o)
	}
	return o, nil
}

func (h *Handler) restoreStock(ctx context.Context, o *order.Order) {
	for _, item := range o.Items {
		if err := h.inventorySvc.Restore(ctx, item.ProductID, o.ID, item.Quantity); err != nil {
			log.Printf("[Order] Failed to restore stock of %s for order %s: %v", item.ProductID, o.ID, err)
		}
	}
}

// RegisterUser creates an account after checking that the email is free
func (h *Handler) RegisterUser(ctx context.Context, cmd RegisterUser) (*user.User, error) {
	if _, exists, err := h.readModels.GetUserByEmail(user.NormalizeEmail(cmd.Email)); err != nil {
		return nil, err
	} else if exists {
		return nil, user.ErrEmailTaken
	}

	role := cmd.Role
	if role == "" {
		role = auth.RoleCustomer
	}
	return h.userSvc.Register(ctx, user.RegisterInput{
		Email:    cmd.Email,
		Password: cmd.Password,
		Name:     cmd.Name,
		Phone:    cmd.Phone,
	}, role)
}

// Login verifies credentials against the users read model
func (h *Handler) Login(ctx context.Context, cmd Login) (*readmodel.UserReadModel, error) {
	u, exists, err := h.readModels.GetUserByEmail(user.NormalizeEmail(cmd.Email))
	if err != nil {
		return nil, err
	}
	if !exists || !auth.CheckPassword(cmd.Password, u.PasswordHash) {
		return nil, user.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, user.ErrUserDeactivated
	}
	return u, nil
}

// UpdateProfile edits the caller's own profile. A new email must not belong
// to another account.
func (h *Handler) UpdateProfile(ctx context.Context, cmd UpdateProfile) (*user.User, error) {
	if cmd.Email != "" {
		if other, exists, err := h.readModels.GetUserByEmail(user.NormalizeEmail(cmd.Email)); err != nil {
			return nil, err
		} else if exists && other.ID != cmd.UserID {
			return nil, user.ErrEmailTaken
		}
	}
	return h.userSvc.UpdateProfile(ctx, cmd.UserID, user.ProfileInput{
		Email: cmd.Email,
		Name:  cmd.Name,
		Phone: cmd.Phone,
	})
}

func (h *Handler) ChangePassword(ctx context.Context, cmd ChangePassword) error {
	if cmd.NewPassword != cmd.ConfirmPassword {
		return user.ErrPasswordMismatch
	}
	return h.userSvc.ChangePassword(ctx, cmd.UserID, cmd.CurrentPassword, cmd.NewPassword)
}

// SetUserStatus activates or deactivates an account. Deactivated accounts
// cannot log in.
func (h *Handler) SetUserStatus(ctx context.Context, cmd SetUserStatus) (*user.User, error) {
	var active bool
	switch strings.ToUpper(strings.TrimSpace(cmd.Status)) {
	case user.StatusActive:
		active = true
	case user.StatusInactive:
	default:
		return nil, user.ErrInvalidStatus
	}
	if cmd.UserID == cmd.ActorID {
		return nil, user.ErrSelfModification
	}
	if err := h.userSvc.SetActive(ctx, cmd.UserID, active); err != nil {
		return nil, err
	}
	return h.userSvc.Get(ctx, cmd.UserID)
}

func (h *Handler) DeleteUser(ctx context.Context, cmd DeleteUser) error {
	if cmd.UserID == cmd.ActorID {
		return user.ErrSelfModification
	}
	return h.userSvc.Delete(ctx, cmd.UserID)
}
