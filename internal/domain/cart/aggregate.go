package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/phone-store/internal/apperr"
	"github.com/example/phone-store/internal/domain/aggregate"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Cart"

var (
	ErrInvalidQuantity  = apperr.New(apperr.KindValidation, "INVALID_QUANTITY", "quantity must be at least 1")
	ErrInvalidProduct   = apperr.New(apperr.KindValidation, "INVALID_PRODUCT", "product_id is required")
	ErrCartItemNotFound = apperr.New(apperr.KindNotFound, "CART_ITEM_NOT_FOUND", "cart item not found")
)

type CartItem struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
}

func (i CartItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Cart keeps its lines in insertion order. Totals are never stored,
// they are folded from the lines on every read.
type Cart struct {
	ID      string     `json:"id"`
	UserID  string     `json:"user_id"`
	Items   []CartItem `json:"items"`
	Version int        `json:"version"`
}

// GetCartID returns the cart ID for a user. Every user has exactly one cart.
func GetCartID(userID string) string {
	return "cart-" + userID
}

func New(userID string) *Cart {
	return &Cart{ID: GetCartID(userID), UserID: userID, Items: []CartItem{}}
}

func (c *Cart) GetID() string   { return c.ID }
func (c *Cart) GetVersion() int { return c.Version }

func (c *Cart) TotalItems() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) TotalAmount() int64 {
	var sum int64
	for _, it := range c.Items {
		sum += it.Subtotal()
	}
	return sum
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Cart) indexOf(itemID string) int {
	for i, it := range c.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

func (c *Cart) lineFor(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// MarshalJSON adds total_items and total_amount, computed from the lines.
func (c *Cart) MarshalJSON() ([]byte, error) {
	type plain Cart
	return json.Marshal(struct {
		*plain
		TotalItems  int   `json:"total_items"`
		TotalAmount int64 `json:"total_amount"`
	}{(*plain)(c), c.TotalItems(), c.TotalAmount()})
}

func (c *Cart) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventItemAdded:
		var data ItemAddedToCart
		if err := event.Decode(&data); err != nil {
			return err
		}
		c.ID = data.CartID
		c.UserID = data.UserID
		if i := c.lineFor(data.ProductID); i >= 0 {
			c.Items[i].Quantity += data.Quantity
		} else {
			c.Items = append(c.Items, CartItem{
				ID:          data.ItemID,
				ProductID:   data.ProductID,
				ProductName: data.ProductName,
				UnitPrice:   data.UnitPrice,
				Quantity:    data.Quantity,
			})
		}
	case EventItemQuantityUpdated:
		var data CartItemQuantityUpdated
		if err := event.Decode(&data); err != nil {
			return err
		}
		if i := c.indexOf(data.ItemID); i >= 0 {
			c.Items[i].Quantity = data.Quantity
		}
	case EventItemRemoved:
		var data ItemRemovedFromCart
		if err := event.Decode(&data); err != nil {
			return err
		}
		if i := c.indexOf(data.ItemID); i >= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		}
	case EventCartCleared:
		c.Items = []CartItem{}
	case EventItemsCheckedOut:
		var data CartItemsCheckedOut
		if err := event.Decode(&data); err != nil {
			return err
		}
		for _, line := range data.Lines {
			i := c.indexOf(line.ItemID)
			if i < 0 {
				continue
			}
			if c.Items[i].Quantity <= line.Quantity {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
			} else {
				c.Items[i].Quantity -= line.Quantity
			}
		}
	}
	c.Version = event.Version
	return nil
}

// ProductSnapshot is the catalog data frozen into a cart line.
type ProductSnapshot struct {
	ID    string
	Name  string
	Price int64
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Get returns the user's cart. A user without history gets an empty cart.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	c, _, err := aggregate.LoadAggregate(ctx, s.eventStore, GetCartID(userID), func() *Cart { return New(userID) })
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AddItem adds quantity of product. Adding a product already in the cart
// increments its line and keeps the line's original price.
func (s *Service) AddItem(ctx context.Context, userID string, product ProductSnapshot, quantity int) (*Cart, error) {
	if product.ID == "" {
		return nil, ErrInvalidProduct
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	return s.mutate(ctx, userID, func(c *Cart) (string, any, error) {
		itemID := uuid.New().String()
		if i := c.lineFor(product.ID); i >= 0 {
			itemID = c.Items[i].ID
		}
		return EventItemAdded, ItemAddedToCart{
			CartID:      c.ID,
			UserID:      userID,
			ItemID:      itemID,
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    quantity,
			AddedAt:     time.Now(),
		}, nil
	})
}

func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	return s.mutate(ctx, userID, func(c *Cart) (string, any, error) {
		if c.indexOf(itemID) < 0 {
			return "", nil, ErrCartItemNotFound
		}
		return EventItemQuantityUpdated, CartItemQuantityUpdated{
			CartID:    c.ID,
			ItemID:    itemID,
			Quantity:  quantity,
			UpdatedAt: time.Now(),
		}, nil
	})
}

// RemoveItem removes a line. Removing the last line leaves an empty cart.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (*Cart, error) {
	return s.mutate(ctx, userID, func(c *Cart) (string, any, error) {
		if c.indexOf(itemID) < 0 {
			return "", nil, ErrCartItemNotFound
		}
		return EventItemRemoved, ItemRemovedFromCart{
			CartID:    c.ID,
			ItemID:    itemID,
			RemovedAt: time.Now(),
		}, nil
	})
}

// Clear empties the cart. Clearing an empty cart records nothing.
func (s *Service) Clear(ctx context.Context, userID, reason string) (*Cart, error) {
	return s.mutate(ctx, userID, func(c *Cart) (string, any, error) {
		if c.IsEmpty() {
			return "", nil, nil
		}
		return EventCartCleared, CartCleared{
			CartID:    c.ID,
			UserID:    userID,
			Reason:    reason,
			ClearedAt: time.Now(),
		}, nil
	})
}

// CheckOut removes from the cart what orderID was built from. A cart still at
// the ordered version is cleared. A cart changed in the meantime only loses
// the ordered quantities, so lines added after the order was read stay.
func (s *Service) CheckOut(ctx context.Context, userID, orderID string, ordered *Cart) (*Cart, error) {
	return s.mutate(ctx, userID, func(c *Cart) (string, any, error) {
		if c.IsEmpty() {
			return "", nil, nil
		}
		if c.Version == ordered.Version {
			return EventCartCleared, CartCleared{
				CartID:    c.ID,
				UserID:    userID,
				Reason:    ClearReasonCheckout,
				ClearedAt: time.Now(),
			}, nil
		}
		lines := make([]CheckedOutLine, 0, len(ordered.Items))
		for _, it := range ordered.Items {
			lines = append(lines, CheckedOutLine{ItemID: it.ID, Quantity: it.Quantity})
		}
		return EventItemsCheckedOut, CartItemsCheckedOut{
			CartID:       c.ID,
			UserID:       userID,
			OrderID:      orderID,
			Lines:        lines,
			CheckedOutAt: time.Now(),
		}, nil
	})
}

// mutate loads the cart, lets decide pick the event and records it at the
// loaded version, deciding again on the fresh cart after a version conflict.
// An empty event type records nothing. The cart returned is rebuilt from the
// event store.
func (s *Service) mutate(ctx context.Context, userID string, decide func(c *Cart) (string, any, error)) (*Cart, error) {
	err := aggregate.RetryOnConflict(func() error {
		c, err := s.Get(ctx, userID)
		if err != nil {
			return err
		}
		eventType, data, err := decide(c)
		if err != nil || eventType == "" {
			return err
		}
		_, err = aggregate.Record(ctx, s.eventStore, c, AggregateType, eventType, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}
