package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/phone-store/internal/domain/order"
	"github.com/example/phone-store/internal/email"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/example/phone-store/internal/infrastructure/store/mocks"
	"github.com/example/phone-store/internal/readmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	err           error
	confirmations map[string]email.OrderSummary
	updates       map[string][]email.StatusUpdate
	receipts      map[string]email.PaymentReceipt
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{
		confirmations: make(map[string]email.OrderSummary),
		updates:       make(map[string][]email.StatusUpdate),
		receipts:      make(map[string]email.PaymentReceipt),
	}
}

func (m *fakeMailer) SendOrderConfirmation(to string, o email.OrderSummary) error {
	if m.err != nil {
		return m.err
	}
	m.confirmations[to] = o
	return nil
}

func (m *fakeMailer) SendStatusUpdate(to string, u email.StatusUpdate) error {
	if m.err != nil {
		return m.err
	}
	m.updates[to] = append(m.updates[to], u)
	return nil
}

func (m *fakeMailer) SendPaymentReceived(to string, p email.PaymentReceipt) error {
	if m.err != nil {
		return m.err
	}
	m.receipts[to] = p
	return nil
}

func newTestHandler() (*Handler, *fakeMailer, *mocks.MockReadStore) {
	readStore := mocks.NewMockReadStore()
	readStore.SetData(readmodel.CollectionUsers, "user-1", &readmodel.UserReadModel{ID: "user-1", Email: "buyer@test"})
	readStore.SetData(readmodel.CollectionOrders, "order-1", &readmodel.OrderReadModel{ID: "order-1", OrderCode: "ORD20240131001", TotalPrice: 2_000_000})
	mailer := newFakeMailer()
	return NewHandler(mailer, readStore), mailer, readStore
}

func event(t *testing.T, eventType string, data any) store.Event {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return store.Event{
		ID:            "evt-1",
		AggregateID:   "order-1",
		AggregateType: order.AggregateType,
		EventType:     eventType,
		Data:          raw,
		Timestamp:     time.Now(),
		Version:       1,
	}
}

func TestHandler_OrderCreatedSendsConfirmation(t *testing.T) {
	h, mailer, _ := newTestHandler()
	e := event(t, order.EventOrderCreated, order.OrderCreated{
		OrderID:       "order-1",
		OrderCode:     "ORD20240131001",
		UserID:        "user-1",
		RecipientName: "Nguyen Van A",
		PaymentMethod: order.PaymentCOD,
		Items: []order.Item{
			{ProductID: "prod-a", ProductName: "Phone A", Price: 1_000_000, Quantity: 1, Subtotal: 1_000_000},
			{ProductID: "prod-b", ProductName: "Phone B", Price: 500_000, Quantity: 2, Subtotal: 1_000_000},
		},
		TotalPrice: 2_000_000,
	})
	raw, err := json.Marshal(e)
	require.NoError(t, err)

	require.NoError(t, h.HandleMessage(context.Background(), []byte("order-1"), raw))

	got, ok := mailer.confirmations["buyer@test"]
	require.True(t, ok)
	assert.Equal(t, "ORD20240131001", got.OrderCode)
	assert.Equal(t, int64(2_000_000), got.Total)
	assert.Equal(t, "COD", got.PaymentMethod)
	assert.Equal(t, []email.OrderItem{{Name: "Phone A", Quantity: 1, Price: 1_000_000}, {Name: "Phone B", Quantity: 2, Price: 500_000}}, got.Items)
}

func TestHandler_StatusChangedSendsUpdate(t *testing.T) {
	h, mailer, _ := newTestHandler()
	e := event(t, order.EventOrderStatusChanged, order.OrderStatusChanged{
		OrderID: "order-1",
		UserID:  "user-1",
		From:    order.StatusConfirmed,
		To:      order.StatusProcessing,
		Tracking: order.Tracking{
			Status:      order.StatusProcessing,
			Description: "Packing",
			Location:    "Warehouse 2",
		},
	})

	require.NoError(t, h.Publish(context.Background(), "order-1", e))

	require.Len(t, mailer.updates["buyer@test"], 1)
	assert.Equal(t, email.StatusUpdate{OrderCode: "ORD20240131001", Status: "PROCESSING", Description: "Packing", Location: "Warehouse 2"},
		mailer.updates["buyer@test"][0])
}

func TestHandler_OrderPaidSendsReceipt(t *testing.T) {
	h, mailer, _ := newTestHandler()
	e := event(t, order.EventOrderPaid, order.OrderPaid{OrderID: "order-1", UserID: "user-1", ProviderTransactionID: "TX-1"})

	require.NoError(t, h.Publish(context.Background(), "order-1", &e))

	assert.Equal(t, email.PaymentReceipt{OrderCode: "ORD20240131001", TransactionID: "TX-1", Total: 2_000_000}, mailer.receipts["buyer@test"])
}

func TestHandler_UnknownUserIsSkipped(t *testing.T) {
	h, mailer, _ := newTestHandler()
	e := event(t, order.EventOrderStatusChanged, order.OrderStatusChanged{OrderID: "order-1", UserID: "ghost", To: order.StatusConfirmed})

	assert.NoError(t, h.Apply(context.Background(), e))
	assert.Empty(t, mailer.updates)
}

func TestHandler_MailerErrorIsReturned(t *testing.T) {
	h, mailer, _ := newTestHandler()
	mailer.err = errors.New("smtp down")
	e := event(t, order.EventOrderStatusChanged, order.OrderStatusChanged{OrderID: "order-1", UserID: "user-1", To: order.StatusConfirmed})

	assert.ErrorContains(t, h.Apply(context.Background(), e), "smtp down")
}

func TestHandler_IgnoresOtherEvents(t *testing.T) {
	h, mailer, _ := newTestHandler()
	e := event(t, order.EventPaymentInitiated, order.PaymentInitiated{OrderID: "order-1"})

	assert.NoError(t, h.Apply(context.Background(), e))
	assert.Empty(t, mailer.confirmations)
	assert.Empty(t, mailer.updates)
	assert.Empty(t, mailer.receipts)
}

func TestHandler_InvalidPayload(t *testing.T) {
	h, _, _ := newTestHandler()

	assert.Error(t, h.HandleMessage(context.Background(), nil, []byte("{not json")))
	assert.Error(t, h.Publish(context.Background(), "k", "not an event"))
}
