package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/phone-store/internal/domain/order"
	"github.com/example/phone-store/internal/email"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/example/phone-store/internal/readmodel"
)

// Mailer is the part of email.Service the handler uses
type Mailer interface {
	SendOrderConfirmation(to string, o email.OrderSummary) error
	SendStatusUpdate(to string, u email.StatusUpdate) error
	SendPaymentReceived(to string, p email.PaymentReceipt) error
}

// Handler emails customers about their orders. Recipients are looked up in
// the users read model, so it must run after the projector.
type Handler struct {
	mailer    Mailer
	readStore store.ReadStoreInterface
}

func NewHandler(mailer Mailer, readStore store.ReadStoreInterface) *Handler {
	return &Handler{
		mailer:    mailer,
		readStore: readStore,
	}
}

// HandleMessage processes an event from the bus
func (h *Handler) HandleMessage(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}
	return h.Apply(ctx, event)
}

// Publish lets the handler run in-process behind the event store
func (h *Handler) Publish(ctx context.Context, _ string, event any) error {
	switch e := event.(type) {
	case store.Event:
		return h.Apply(ctx, e)
	case *store.Event:
		return h.Apply(ctx, *e)
	}
	return fmt.Errorf("notifier cannot publish %T", event)
}

func (h *Handler) Apply(_ context.Context, event store.Event) error {
	switch event.EventType {
	case order.EventOrderCreated:
		return h.handleOrderCreated(event)
	case order.EventOrderStatusChanged:
		return h.handleStatusChanged(event)
	case order.EventOrderPaid:
		return h.handleOrderPaid(event)
	}
	return nil
}

func (h *Handler) handleOrderCreated(event store.Event) error {
	var e order.OrderCreated
	if err := event.Decode(&e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderCreated event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing OrderCreated for order %s, user %s", e.OrderCode, e.UserID)
	to, ok := h.recipient(e.UserID)
	if !ok {
		return nil
	}

	items := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		items[i] = email.OrderItem{Name: item.ProductName, Quantity: item.Quantity, Price: item.Price}
	}

	if err := h.mailer.SendOrderConfirmation(to, email.OrderSummary{
		OrderCode:       e.OrderCode,
		RecipientName:   e.RecipientName,
		ShippingAddress: e.ShippingAddress,
		PaymentMethod:   string(e.PaymentMethod),
		Items:           items,
		Total:           e.TotalPrice,
	}); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", to, err)
		return err
	}

	log.Printf("[Notifier] Order confirmation sent to %s for order %s", to, e.OrderCode)
	return nil
}

func (h *Handler) handleStatusChanged(event store.Event) error {
	var e order.OrderStatusChanged
	if err := event.Decode(&e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderStatusChanged event: %v", err)
		return err
	}

	to, ok := h.recipient(e.UserID)
	if !ok {
		return nil
	}

	code := h.orderCode(e.OrderID)
	if err := h.mailer.SendStatusUpdate(to, email.StatusUpdate{
		OrderCode:   code,
		Status:      string(e.To),
		Description: e.Tracking.Description,
		Location:    e.Tracking.Location,
	}); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", to, err)
		return err
	}

	log.Printf("[Notifier] Status update %s sent to %s for order %s", e.To, to, code)
	return nil
}

func (h *Handler) handleOrderPaid(event store.Event) error {
	var e order.OrderPaid
	if err := event.Decode(&e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderPaid event: %v", err)
		return err
	}

	to, ok := h.recipient(e.UserID)
	if !ok {
		return nil
	}

	receipt := email.PaymentReceipt{OrderCode: e.OrderID, TransactionID: e.ProviderTransactionID}
	if o, ok := h.order(e.OrderID); ok {
		receipt.OrderCode = o.OrderCode
		receipt.Total = o.TotalPrice
	}
	if err := h.mailer.SendPaymentReceived(to, receipt); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", to, err)
		return err
	}

	log.Printf("[Notifier] Payment receipt sent to %s for order %s", to, receipt.OrderCode)
	return nil
}

// recipient resolves a user's email. A missing or unreadable user is logged
// and the notification dropped.
func (h *Handler) recipient(userID string) (string, bool) {
	data, exists, err := h.readStore.Get(readmodel.CollectionUsers, userID)
	if err != nil {
		log.Printf("[Notifier] Error getting user %s: %v", userID, err)
		return "", false
	}
	if !exists {
		log.Printf("[Notifier] User not found: %s", userID)
		return "", false
	}
	u, ok := data.(*readmodel.UserReadModel)
	if !ok || u.Email == "" {
		log.Printf("[Notifier] Invalid user data for user: %s", userID)
		return "", false
	}
	return u.Email, true
}

func (h *Handler) order(orderID string) (*readmodel.OrderReadModel, bool) {
	data, exists, err := h.readStore.Get(readmodel.CollectionOrders, orderID)
	if err != nil || !exists {
		return nil, false
	}
	o, ok := data.(*readmodel.OrderReadModel)
	return o, ok
}

func (h *Handler) orderCode(orderID string) string {
	if o, ok := h.order(orderID); ok && o.OrderCode != "" {
		return o.OrderCode
	}
	return orderID
}
