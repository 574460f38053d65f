package projection

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/example/phone-store/internal/domain/category"
	"github.com/example/phone-store/internal/domain/inventory"
	"github.com/example/phone-store/internal/domain/order"
	"github.com/example/phone-store/internal/domain/product"
	"github.com/example/phone-store/internal/domain/user"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/example/phone-store/internal/infrastructure/store/mocks"
	"github.com/example/phone-store/internal/readmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProjector() (*Projector, *mocks.MockReadStore) {
	readStore := mocks.NewMockReadStore()
	projector := NewProjector(readStore)
	return projector, readStore
}

func makeEvent(aggregateID, aggregateType, eventType string, data any) []byte {
	jsonData, _ := json.Marshal(data)
	event := store.Event{
		ID:            "event-123",
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
	}
	result, _ := json.Marshal(event)
	return result
}

func handle(t *testing.T, p *Projector, aggregateID, aggregateType, eventType string, data any) {
	t.Helper()
	require.NoError(t, p.HandleMessage(context.Background(), []byte(aggregateID), makeEvent(aggregateID, aggregateType, eventType, data)))
}

func getOrder(t *testing.T, rs *mocks.MockReadStore, id string) *readmodel.OrderReadModel {
	t.Helper()
	data, ok := rs.GetData(readmodel.CollectionOrders, id)
	require.True(t, ok)
	return data.(*readmodel.OrderReadModel)
}

var createdAt = time.Date(2024, time.January, 31, 10, 0, 0, 0, time.UTC)

func orderCreated() order.OrderCreated {
	return order.OrderCreated{
		OrderID:         "order-1",
		OrderCode:       "ORD20240131001",
		UserID:          "user-1",
		RecipientName:   "Nguyen Van A",
		Phone:           "0912345678",
		ShippingAddress: "1 Le Loi",
		PaymentMethod:   order.PaymentPayPal,
		Items: []order.Item{
			{ProductID: "prod-a", ProductName: "Phone A", Price: 1_000_000, Quantity: 1, Subtotal: 1_000_000},
			{ProductID: "prod-b", ProductName: "Phone B", Price: 500_000, Quantity: 2, Subtotal: 1_000_000},
		},
		TotalPrice: 2_000_000,
		Tracking:   order.Tracking{Status: order.StatusPending, Description: "Order placed and awaiting confirmation", Actor: "user-1", CreatedAt: createdAt},
		CreatedAt:  createdAt,
	}
}

// ============================================
// Product / Inventory Event Tests
// ============================================

func TestProjector_ProductLifecycle(t *testing.T) {
	projector, readStore := newTestProjector()

	handle(t, projector, "prod-a", product.AggregateType, product.EventProductCreated, product.ProductCreated{
		ProductID: "prod-a", Name: "Phone A", Brand: "Samsung", Price: 1_000_000, CreatedAt: createdAt,
	})
	handle(t, projector, "prod-a", product.AggregateType, product.EventProductUpdated, product.ProductUpdated{
		ProductID: "prod-a", Name: "Phone A+", Brand: "Samsung", Price: 1_200_000, UpdatedAt: createdAt,
	})
	handle(t, projector, "prod-a", product.AggregateType, product.EventProductStatusChanged, product.ProductStatusChanged{
		ProductID: "prod-a", Status: product.StatusInactive, ChangedAt: createdAt,
	})

	data, ok := readStore.GetData(readmodel.CollectionProducts, "prod-a")
	require.True(t, ok)
	p := data.(*readmodel.ProductReadModel)
	assert.Equal(t, "Phone A+", p.Name)
	assert.Equal(t, int64(1_200_000), p.Price)
	assert.Equal(t, "INACTIVE", p.Status)
}

func TestProjector_CategoryLifecycle(t *testing.T) {
	projector, readStore := newTestProjector()

	handle(t, projector, "cat-1", category.AggregateType, category.EventCategoryCreated, category.CategoryCreated{
		CategoryID: "cat-1", Name: "Phones", Slug: "phones", CreatedAt: createdAt,
	})
	handle(t, projector, "cat-1", category.AggregateType, category.EventCategoryUpdated, category.CategoryUpdated{
		CategoryID: "cat-1", Name: "Smartphones", Slug: "smartphones", Description: "All smartphones", UpdatedAt: createdAt,
	})
	handle(t, projector, "prod-a", product.AggregateType, product.EventProductCreated, product.ProductCreated{
		ProductID: "prod-a", Name: "Phone A", CategoryID: "cat-1", Price: 1, CreatedAt: createdAt,
	})

	data, ok := readStore.GetData(readmodel.CollectionCategories, "cat-1")
	require.True(t, ok)
	c := data.(*readmodel.CategoryReadModel)
	assert.Equal(t, "Smartphones", c.Name)
	assert.Equal(t, "smartphones", c.Slug)
	prod, _ := readStore.GetData(readmodel.CollectionProducts, "prod-a")
	assert.Equal(t, "cat-1", prod.(*readmodel.ProductReadModel).CategoryID)

	handle(t, projector, "prod-a", product.AggregateType, product.EventProductUpdated, product.ProductUpdated{
		ProductID: "prod-a", Name: "Phone A", Price: 1, UpdatedAt: createdAt,
	})
	prod, _ = readStore.GetData(readmodel.CollectionProducts, "prod-a")
	assert.Empty(t, prod.(*readmodel.ProductReadModel).CategoryID)

	handle(t, projector, "cat-1", category.AggregateType, category.EventCategoryDeleted, category.CategoryDeleted{CategoryID: "cat-1", DeletedAt: createdAt})
	_, ok = readStore.GetData(readmodel.CollectionCategories, "cat-1")
	assert.False(t, ok)
}

func TestProjector_StockEventsAdjustInventoryAndProduct(t *testing.T) {
	projector, readStore := newTestProjector()
	handle(t, projector, "prod-a", product.AggregateType, product.EventProductCreated, product.ProductCreated{ProductID: "prod-a", Name: "Phone A", Price: 1})
	invID := inventory.AggregateID("prod-a")

	handle(t, projector, invID, inventory.AggregateType, inventory.EventStockAdded, inventory.StockAdded{ProductID: "prod-a", Quantity: 10})
	handle(t, projector, invID, inventory.AggregateType, inventory.EventStockDeducted, inventory.StockDeducted{ProductID: "prod-a", OrderID: "order-1", Quantity: 3})
	handle(t, projector, invID, inventory.AggregateType, inventory.EventStockRestored, inventory.StockRestored{ProductID: "prod-a", OrderID: "order-1", Quantity: 1})

	inv, ok := readStore.GetData(readmodel.CollectionInventory, "prod-a")
	require.True(t, ok)
	assert.Equal(t, 8, inv.(*readmodel.InventoryReadModel).Stock)
	prod, _ := readStore.GetData(readmodel.CollectionProducts, "prod-a")
	assert.Equal(t, 8, prod.(*readmodel.ProductReadModel).Stock)
}

func TestProjector_StockBeforeProductIsCarriedOver(t *testing.T) {
	projector, readStore := newTestProjector()

	handle(t, projector, inventory.AggregateID("prod-a"), inventory.AggregateType, inventory.EventStockAdded, inventory.StockAdded{ProductID: "prod-a", Quantity: 5})
	handle(t, projector, "prod-a", product.AggregateType, product.EventProductCreated, product.ProductCreated{ProductID: "prod-a", Name: "Phone A", Price: 1})

	prod, ok := readStore.GetData(readmodel.CollectionProducts, "prod-a")
	require.True(t, ok)
	assert.Equal(t, 5, prod.(*readmodel.ProductReadModel).Stock)
}

// ============================================
// Order Event Tests
// ============================================

func TestProjector_OrderCreated(t *testing.T) {
	projector, readStore := newTestProjector()

	handle(t, projector, "order-1", order.AggregateType, order.EventOrderCreated, orderCreated())

	o := getOrder(t, readStore, "order-1")
	assert.Equal(t, "ORD20240131001", o.OrderCode)
	assert.Equal(t, "PENDING", o.Status)
	assert.Equal(t, "UNPAID", o.PaymentStatus)
	assert.Equal(t, int64(2_000_000), o.TotalPrice)
	assert.Len(t, o.Items, 2)
	assert.Len(t, o.Trackings, 1)

	id, ok := readStore.GetData(readmodel.CollectionOrderCodes, "ORD20240131001")
	require.True(t, ok)
	assert.Equal(t, "order-1", id)
}

func TestProjector_OrderStatusChanged_IgnoresRedelivery(t *testing.T) {
	projector, readStore := newTestProjector()
	handle(t, projector, "order-1", order.AggregateType, order.EventOrderCreated, orderCreated())
	changed := order.OrderStatusChanged{
		OrderID: "order-1", From: order.StatusPending, To: order.StatusConfirmed,
		Tracking:  order.Tracking{Status: order.StatusConfirmed, Description: "Order has been confirmed", Actor: "admin-1", CreatedAt: createdAt.Add(time.Hour)},
		ChangedAt: createdAt.Add(time.Hour),
	}

	handle(t, projector, "order-1", order.AggregateType, order.EventOrderStatusChanged, changed)
	handle(t, projector, "order-1", order.AggregateType, order.EventOrderStatusChanged, changed)

	o := getOrder(t, readStore, "order-1")
	assert.Equal(t, "CONFIRMED", o.Status)
	assert.Len(t, o.Trackings, 2)
	assert.Equal(t, o.Status, o.Trackings[len(o.Trackings)-1].Status)
}

func TestProjector_CODCompletionSettlesPayment(t *testing.T) {
	projector, readStore := newTestProjector()
	handle(t, projector, "order-1", order.AggregateType, order.EventOrderCreated, orderCreated())
	paidAt := createdAt.Add(48 * time.Hour)

	handle(t, projector, "order-1", order.AggregateType, order.EventOrderStatusChanged, order.OrderStatusChanged{
		OrderID: "order-1", From: order.StatusDelivered, To: order.StatusCompleted,
		Tracking:      order.Tracking{Status: order.StatusCompleted, Actor: "admin-1", CreatedAt: paidAt},
		PaymentStatus: order.PaymentPaid, PaidAt: &paidAt, ChangedAt: paidAt,
	})

	o := getOrder(t, readStore, "order-1")
	assert.Equal(t, "PAID", o.PaymentStatus)
	require.NotNil(t, o.PaidAt)
	assert.True(t, o.PaidAt.Equal(paidAt))
}

func TestProjector_PaymentEvents(t *testing.T) {
	projector, readStore := newTestProjector()
	handle(t, projector, "order-1", order.AggregateType, order.EventOrderCreated, orderCreated())

	handle(t, projector, "order-1", order.AggregateType, order.EventPaymentInitiated, order.PaymentInitiated{
		OrderID: "order-1", ProviderOrderID: "PAYPAL-1", Amount: "80.00", Currency: "USD", InitiatedAt: createdAt,
	})
	o := getOrder(t, readStore, "order-1")
	assert.Equal(t, "PAYPAL-1", o.ProviderOrderID)
	assert.Len(t, o.Trackings, 1)

	handle(t, projector, "order-1", order.AggregateType, order.EventOrderPaid, order.OrderPaid{
		OrderID: "order-1", ProviderOrderID: "PAYPAL-1", ProviderTransactionID: "TX-1",
		Tracking: order.Tracking{Status: order.StatusPending, Description: "Payment received via PayPal", Actor: "user-1", CreatedAt: createdAt.Add(time.Minute)},
		PaidAt:   createdAt.Add(time.Minute),
	})
	o = getOrder(t, readStore, "order-1")
	assert.Equal(t, "PAID", o.PaymentStatus)
	assert.Equal(t, "TX-1", o.ProviderTransactionID)
	assert.Equal(t, "PENDING", o.Status)
	assert.Len(t, o.Trackings, 2)
}

func TestProjector_UpdateBeforeCreateIsSkipped(t *testing.T) {
	projector, readStore := newTestProjector()

	handle(t, projector, "order-9", order.AggregateType, order.EventPaymentInitiated, order.PaymentInitiated{OrderID: "order-9", ProviderOrderID: "P"})

	_, ok := readStore.GetData(readmodel.CollectionOrders, "order-9")
	assert.False(t, ok)
}

// ============================================
// User Event Tests
// ============================================

func TestProjector_UserLifecycle(t *testing.T) {
	projector, readStore := newTestProjector()

	handle(t, projector, "u-1", user.AggregateType, user.EventUserCreated, user.UserCreated{
		UserID: "u-1", Email: "a@b.cd", PasswordHash: "hash", Name: "A", Role: "CUSTOMER", CreatedAt: createdAt,
	})
	handle(t, projector, "u-1", user.AggregateType, user.EventUserUpdated, user.UserUpdated{UserID: "u-1", Name: "B", Phone: "0912345678"})
	handle(t, projector, "u-1", user.AggregateType, user.EventUserDeactivated, user.UserDeactivated{UserID: "u-1"})

	data, ok := readStore.GetData(readmodel.CollectionUsers, "u-1")
	require.True(t, ok)
	u := data.(*readmodel.UserReadModel)
	assert.Equal(t, "B", u.Name)
	assert.Equal(t, "0912345678", u.Phone)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.Equal(t, "a@b.cd", u.Email)
	assert.False(t, u.IsActive)
}

func TestProjector_UserEmailChangeAndDelete(t *testing.T) {
	projector, readStore := newTestProjector()
	handle(t, projector, "u-1", user.AggregateType, user.EventUserCreated, user.UserCreated{
		UserID: "u-1", Email: "a@b.cd", PasswordHash: "hash", Name: "A", Role: "CUSTOMER", CreatedAt: createdAt,
	})

	handle(t, projector, "u-1", user.AggregateType, user.EventUserUpdated, user.UserUpdated{UserID: "u-1", Email: "new@b.cd", Name: "A"})
	data, ok := readStore.GetData(readmodel.CollectionUsers, "u-1")
	require.True(t, ok)
	assert.Equal(t, "new@b.cd", data.(*readmodel.UserReadModel).Email)

	handle(t, projector, "u-1", user.AggregateType, user.EventUserDeleted, user.UserDeleted{UserID: "u-1", DeletedAt: createdAt})
	_, ok = readStore.GetData(readmodel.CollectionUsers, "u-1")
	assert.False(t, ok)
}

// ============================================
// Plumbing Tests
// ============================================

func TestProjector_HandleMessage_InvalidJSON(t *testing.T) {
	projector, _ := newTestProjector()

	err := projector.HandleMessage(context.Background(), nil, []byte("not json"))

	assert.Error(t, err)
}

func TestProjector_UnknownAggregateIsIgnored(t *testing.T) {
	projector, readStore := newTestProjector()

	handle(t, projector, "cart-user-1", "Cart", "ItemAddedToCart", map[string]any{"cart_id": "cart-user-1"})

	assert.Empty(t, readStore.SetCalls)
}

func TestProjector_PublishAndReplay(t *testing.T) {
	projector, readStore := newTestProjector()
	eventStore := store.NewEventStore(projector)
	ctx := context.Background()

	_, err := eventStore.Append(ctx, "order-1", order.AggregateType, order.EventOrderCreated, 0, orderCreated())
	require.NoError(t, err)
	assert.Equal(t, "PENDING", getOrder(t, readStore, "order-1").Status)

	readStore.Reset()
	n, err := projector.Replay(ctx, eventStore)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "ORD20240131001", getOrder(t, readStore, "order-1").OrderCode)
}

func TestProjector_Publish_RejectsForeignPayload(t *testing.T) {
	projector, _ := newTestProjector()

	err := projector.Publish(context.Background(), "k", "not an event")

	assert.Error(t, err)
}
