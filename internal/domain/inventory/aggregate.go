package inventory

import (
	"context"
	"time"

	"github.com/example/phone-store/internal/apperr"
	"github.com/example/phone-store/internal/domain/aggregate"
	"github.com/example/phone-store/internal/infrastructure/store"
)

const AggregateType = "Inventory"

var (
	ErrInsufficientStock = apperr.New(apperr.KindConflict, "INSUFFICIENT_STOCK", "insufficient stock")
	ErrInvalidQuantity   = apperr.Validation("quantity", "quantity must be positive")
)

// AggregateID keeps stock events apart from the product's own stream.
func AggregateID(productID string) string {
	return "inv-" + productID
}

type Inventory struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
	Version   int    `json:"version"`
}

func (i *Inventory) GetID() string   { return i.ID }
func (i *Inventory) GetVersion() int { return i.Version }

func (i *Inventory) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventStockAdded:
		var data StockAdded
		if err := event.Decode(&data); err != nil {
			return err
		}
		i.Stock += data.Quantity
	case EventStockDeducted:
		var data StockDeducted
		if err := event.Decode(&data); err != nil {
			return err
		}
		i.Stock -= data.Quantity
		if i.Stock < 0 {
			i.Stock = 0
		}
	case EventStockRestored:
		var data StockRestored
		if err := event.Decode(&data); err != nil {
			return err
		}
		i.Stock += data.Quantity
	}
	i.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Get returns the stock of a product. A product never stocked has zero.
func (s *Service) Get(ctx context.Context, productID string) (*Inventory, error) {
	inv, _, err := aggregate.LoadAggregate(ctx, s.eventStore, AggregateID(productID), func() *Inventory {
		return &Inventory{ID: AggregateID(productID), ProductID: productID}
	})
	return inv, err
}

// Check reports ErrInsufficientStock when fewer than quantity units are left.
func (s *Service) Check(ctx context.Context, productID string, quantity int) error {
	inv, err := s.Get(ctx, productID)
	if err != nil {
		return err
	}
	if inv.Stock < quantity {
		return ErrInsufficientStock
	}
	return nil
}

func (s *Service) AddStock(ctx context.Context, productID string, quantity int) (*Inventory, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	var inv *Inventory
	err := aggregate.RetryOnConflict(func() error {
		var err error
		if inv, err = s.Get(ctx, productID); err != nil {
			return err
		}
		_, err = aggregate.Record(ctx, s.eventStore, inv, AggregateType, EventStockAdded, StockAdded{
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   time.Now(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Deduct takes quantity units for an order. The stock check is repeated on
// every retry, so two orders racing for the last unit never both get it.
func (s *Service) Deduct(ctx context.Context, productID, orderID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return aggregate.RetryOnConflict(func() error {
		inv, err := s.Get(ctx, productID)
		if err != nil {
			return err
		}
		if inv.Stock < quantity {
			return ErrInsufficientStock
		}
		_, err = aggregate.Record(ctx, s.eventStore, inv, AggregateType, EventStockDeducted, StockDeducted{
			ProductID:  productID,
			OrderID:    orderID,
			Quantity:   quantity,
			DeductedAt: time.Now(),
		})
		return err
	})
}

func (s *Service) Restore(ctx context.Context, productID, orderID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return aggregate.RetryOnConflict(func() error {
		inv, err := s.Get(ctx, productID)
		if err != nil {
			return err
		}
		_, err = aggregate.Record(ctx, s.eventStore, inv, AggregateType, EventStockRestored, StockRestored{
			ProductID:  productID,
			OrderID:    orderID,
			Quantity:   quantity,
			RestoredAt: time.Now(),
		})
		return err
	})
}
