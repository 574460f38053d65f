package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/phone-store/internal/domain/category"
	"github.com/example/phone-store/internal/domain/inventory"
	"github.com/example/phone-store/internal/domain/order"
	"github.com/example/phone-store/internal/domain/product"
	"github.com/example/phone-store/internal/domain/user"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/example/phone-store/internal/readmodel"
)

// Projector builds the read models from domain events. It is fed by the
// Kafka or RabbitMQ consumer, by a Lambda stream batch, or synchronously as
// the event store's publisher.
type Projector struct {
	readStore store.ReadStoreInterface
}

func NewProjector(readStore store.ReadStoreInterface) *Projector {
	return &Projector{readStore: readStore}
}

// HandleMessage decodes a bus message and projects it
func (p *Projector) HandleMessage(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	return p.Apply(ctx, event)
}

// Publish lets the projector stand in for a bus in single-process mode
func (p *Projector) Publish(ctx context.Context, _ string, event any) error {
	switch e := event.(type) {
	case store.Event:
		return p.Apply(ctx, e)
	case *store.Event:
		return p.Apply(ctx, *e)
	}
	return fmt.Errorf("projector cannot publish %T", event)
}

// Replay rebuilds every read model from the full event history
func (p *Projector) Replay(ctx context.Context, eventStore store.EventStoreInterface) (int, error) {
	events, err := eventStore.GetAllEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("load events: %w", err)
	}
	for i, event := range events {
		if err := p.Apply(ctx, event); err != nil {
			return i, fmt.Errorf("replay %s v%d of %s: %w", event.EventType, event.Version, event.AggregateID, err)
		}
	}
	log.Printf("[Projector] Replayed %d events", len(events))
	return len(events), nil
}

func (p *Projector) Apply(_ context.Context, event store.Event) error {
	log.Printf("[Projector] Received event: %s (aggregate: %s)", event.EventType, event.AggregateType)

	switch event.AggregateType {
	case product.AggregateType:
		return p.handleProductEvent(event)
	case inventory.AggregateType:
		return p.handleInventoryEvent(event)
	case order.AggregateType:
		return p.handleOrderEvent(event)
	case user.AggregateType:
		return p.handleUserEvent(event)
	case category.AggregateType:
		return p.handleCategoryEvent(event)
	}
	// carts are always read from the event store
	return nil
}

// update applies fn to an existing read model. A missing target means the
// creating event has not been projected yet, which is logged and skipped.
func (p *Projector) update(collection, id string, fn func(current any) any) error {
	found, err := p.readStore.Update(collection, id, fn)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if !found {
		log.Printf("[Projector] %s/%s not found, skipping update", collection, id)
	}
	return nil
}

func (p *Projector) handleProductEvent(event store.Event) error {
	switch event.EventType {
	case product.EventProductCreated:
		var e product.ProductCreated
		if err := event.Decode(&e); err != nil {
			return err
		}
		stock := 0
		if inv, ok, err := p.readStore.Get(readmodel.CollectionInventory, e.ProductID); err != nil {
			return err
		} else if ok {
			stock = inv.(*readmodel.InventoryReadModel).Stock
		}
		return p.readStore.Set(readmodel.CollectionProducts, e.ProductID, &readmodel.ProductReadModel{
			ID:          e.ProductID,
			Name:        e.Name,
			Description: e.Description,
			Brand:       e.Brand,
			CategoryID:  e.CategoryID,
			Price:       e.Price,
			Stock:       stock,
			Status:      string(product.StatusActive),
			ImageURL:    e.ImageURL,
			CreatedAt:   e.CreatedAt,
			UpdatedAt:   e.CreatedAt,
		})

	case product.EventProductUpdated:
		var e product.ProductUpdated
		if err := event.Decode(&e); err != nil {
			return err
		}
		return p.update(readmodel.CollectionProducts, e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.Name = e.Name
			prod.Description = e.Description
			prod.Brand = e.Brand
			prod.CategoryID = e.CategoryID
			prod.Price = e.Price
			prod.ImageURL = e.ImageURL
			prod.UpdatedAt = e.UpdatedAt
			return prod
		})

	case product.EventProductStatusChanged:
		var e product.ProductStatusChanged
		if err := event.Decode(&e); err != nil {
			return err
		}
		return p.update(readmodel.CollectionProducts, e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.Status = string(e.Status)
			prod.UpdatedAt = e.ChangedAt
			return prod
		})
	}
	return nil
}

func (p *Projector) handleCategoryEvent(event store.Event) error {
	switch event.EventType {
	case category.EventCategoryCreated:
		var e category.CategoryCreated
		if err := event.Decode(&e); err != nil {
			return err
		}
		return p.readStore.Set(readmodel.CollectionCategories, e.CategoryID, &readmodel.CategoryReadModel{
			ID:          e.CategoryID,
			Name:        e.Name,
			Slug:        e.Slug,
			Description: e.Description,
			ImageURL:    e.ImageURL,
			CreatedAt:   e.CreatedAt,
			UpdatedAt:   e.CreatedAt,
		})

	case category.EventCategoryUpdated:
		var e category.CategoryUpdated
		if err := event.Decode(&e); err != nil {
			return err
		}
		return p.update(readmodel.CollectionCategories, e.CategoryID, func(current any) any {
			c := current.(*readmodel.CategoryReadModel)
			c.Name = e.Name
			c.Slug = e.Slug
			c.Description = e.Description
			c.ImageURL = e.ImageURL
			c.UpdatedAt = e.UpdatedAt
			return c
		})

	case category.EventCategoryDeleted:
		var e category.CategoryDeleted
		if err := event.Decode(&e); err != nil {
			return err
		}
		return p.readStore.Delete(readmodel.CollectionCategories, e.CategoryID)
	}
	return nil
}

func (p *Projector) handleInventoryEvent(event store.Event) error {
	var productID string
	var delta int

	switch event.EventType {
	case inventory.EventStockAdded:
		var e inventory.StockAdded
		if err := event.Decode(&e); err != nil {
			return err
		}
		productID, delta = e.ProductID, e.Quantity
	case inventory.EventStockDeducted:
		var e inventory.StockDeducted
		if err := event.Decode(&e); err != nil {
			return err
		}
		productID, delta = e.ProductID, -e.Quantity
	case inventory.EventStockRestored:
		var e inventory.StockRestored
		if err := event.Decode(&e); err != nil {
			return err
		}
		productID, delta = e.ProductID, e.Quantity
	default:
		return nil
	}

	found, err := p.readStore.Update(readmodel.CollectionInventory, productID, func(current any) any {
		inv := current.(*readmodel.InventoryReadModel)
		inv.Stock += delta
		inv.UpdatedAt = event.Timestamp
		return inv
	})
	if err != nil {
		return err
	}
	if !found {
		if err := p.readStore.Set(readmodel.CollectionInventory, productID, &readmodel.InventoryReadModel{
			ProductID: productID,
			Stock:     delta,
			UpdatedAt: event.Timestamp,
		}); err != nil {
			return err
		}
	}

	// the product row may not exist yet; ProductCreated copies the stock then
	_, err = p.readStore.Update(readmodel.CollectionProducts, productID, func(current any) any {
		prod := current.(*readmodel.ProductReadModel)
		prod.Stock += delta
		return prod
	})
	return err
}

func toTracking(t order.Tracking) readmodel.TrackingReadModel {
	return readmodel.TrackingReadModel{
		Status:      string(t.Status),
		Description: t.Description,
		Location:    t.Location,
		Actor:       t.Actor,
		CreatedAt:   t.CreatedAt,
	}
}

// appendTracking skips an entry already present, so a redelivered event does
// not duplicate history.
func appendTracking(list []readmodel.TrackingReadModel, t order.Tracking) []readmodel.TrackingReadModel {
	entry := toTracking(t)
	for _, existing := range list {
		if existing.Status == entry.Status && existing.Actor == entry.Actor && existing.CreatedAt.Equal(entry.CreatedAt) {
			return list
		}
	}
	return append(list, entry)
}

func (p *Projector) handleOrderEvent(event store.Event) error {
	switch event.EventType {
	case order.EventOrderCreated:
		var e order.OrderCreated
		if err := event.Decode(&e); err != nil {
			return err
		}
		items := make([]readmodel.OrderItemReadModel, 0, len(e.Items))
		for _, it := range e.Items {
			items = append(items, readmodel.OrderItemReadModel{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Price:       it.Price,
				Quantity:    it.Quantity,
				Subtotal:    it.Subtotal,
			})
		}
		if err := p.readStore.Set(readmodel.CollectionOrders, e.OrderID, &readmodel.OrderReadModel{
			ID:              e.OrderID,
			OrderCode:       e.OrderCode,
			UserID:          e.UserID,
			RecipientName:   e.RecipientName,
			Phone:           e.Phone,
			ShippingAddress: e.ShippingAddress,
			Note:            e.Note,
			PaymentMethod:   string(e.PaymentMethod),
			PaymentStatus:   string(order.PaymentUnpaid),
			Status:          string(e.Tracking.Status),
			TotalPrice:      e.TotalPrice,
			Items:           items,
			Trackings:       []readmodel.TrackingReadModel{toTracking(e.Tracking)},
			CreatedAt:       e.CreatedAt,
			UpdatedAt:       e.CreatedAt,
		}); err != nil {
			return err
		}
		return p.readStore.Set(readmodel.CollectionOrderCodes, e.OrderCode, e.OrderID)

	case order.EventOrderStatusChanged:
		var e order.OrderStatusChanged
		if err := event.Decode(&e); err != nil {
			return err
		}
		return p.update(readmodel.CollectionOrders, e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.Status = string(e.To)
			o.Trackings = appendTracking(o.Trackings, e.Tracking)
			if e.PaymentStatus != "" {
				o.PaymentStatus = string(e.PaymentStatus)
				o.PaidAt = e.PaidAt
			}
			o.UpdatedAt = e.ChangedAt
			return o
		})

	case order.EventPaymentInitiated:
		var e order.PaymentInitiated
		if err := event.Decode(&e); err != nil {
			return err
		}
		return p.update(readmodel.CollectionOrders, e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.ProviderOrderID = e.ProviderOrderID
			o.UpdatedAt = e.InitiatedAt
			return o
		})

	case order.EventOrderPaid:
		var e order.OrderPaid
		if err := event.Decode(&e); err != nil {
			return err
		}
		return p.update(readmodel.CollectionOrders, e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			paidAt := e.PaidAt
			o.PaymentStatus = string(order.PaymentPaid)
			o.PaidAt = &paidAt
			o.ProviderOrderID = e.ProviderOrderID
			o.ProviderTransactionID = e.ProviderTransactionID
			o.Trackings = appendTracking(o.Trackings, e.Tracking)
			o.UpdatedAt = e.PaidAt
			return o
		})
	}
	return nil
}

func (p *Projector) handleUserEvent(event store.Event) error {
	switch event.EventType {
	case user.EventUserCreated:
		var e user.UserCreated
		if err := event.Decode(&e); err != nil {
			return err
		}
		return p.readStore.Set(readmodel.CollectionUsers, e.UserID, &readmodel.UserReadModel{
			ID:           e.UserID,
			Email:        e.Email,
			PasswordHash: e.PasswordHash,
			Name:         e.Name,
			Phone:        e.Phone,
			Role:         e.Role,
			IsActive:     true,
			CreatedAt:    e.CreatedAt,
			UpdatedAt:    e.CreatedAt,
		})

	case user.EventUserUpdated:
		var e user.UserUpdated
		if err := event.Decode(&e); err != nil {
			return err
		}
		return p.update(readmodel.CollectionUsers, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			if e.Email != "" {
				u.Email = e.Email
			}
			u.Name = e.Name
			u.Phone = e.Phone
			u.UpdatedAt = e.UpdatedAt
			return u
		})

	case user.EventUserPasswordChanged:
		var e user.UserPasswordChanged
		if err := event.Decode(&e); err != nil {
			return err
		}
		return p.update(readmodel.CollectionUsers, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.PasswordHash = e.PasswordHash
			u.UpdatedAt = e.ChangedAt
			return u
		})

	case user.EventUserDeactivated:
		var e user.UserDeactivated
		if err := event.Decode(&e); err != nil {
			return err
		}
		return p.update(readmodel.CollectionUsers, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.IsActive = false
			u.UpdatedAt = e.DeactivatedAt
			return u
		})

	case user.EventUserActivated:
		var e user.UserActivated
		if err := event.Decode(&e); err != nil {
			return err
		}
		return p.update(readmodel.CollectionUsers, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.IsActive = true
			u.UpdatedAt = e.ActivatedAt
			return u
		})

	case user.EventUserDeleted:
		var e user.UserDeleted
		if err := event.Decode(&e); err != nil {
			return err
		}
		return p.readStore.Delete(readmodel.CollectionUsers, e.UserID)
	}
	return nil
}
