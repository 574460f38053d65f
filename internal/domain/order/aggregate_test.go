package order

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/phone-store/internal/apperr"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/example/phone-store/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.January, 31, 10, 0, 0, 0, time.UTC)

func newTestOrderService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore, NewMemoryCodeSequence())
	service.now = func() time.Time { return fixedNow }
	return service, eventStore
}

func twoLineItems() []Item {
	return []Item{
		{ProductID: "prod-a", ProductName: "Phone A", Price: 1_000_000, Quantity: 1},
		{ProductID: "prod-b", ProductName: "Phone B", Price: 500_000, Quantity: 2},
	}
}

func createOrder(t *testing.T, service *Service, method PaymentMethod) *Order {
	t.Helper()
	o, err := service.Create(context.Background(), CreateInput{
		UserID:        "user-1",
		Shipping:      validShipping(),
		PaymentMethod: method,
		Items:         twoLineItems(),
	})
	require.NoError(t, err)
	return o
}

func moveTo(t *testing.T, service *Service, orderID string, path ...Status) {
	t.Helper()
	for _, st := range path {
		_, err := service.Transition(context.Background(), orderID, st, TransitionInput{Actor: "admin-1"})
		require.NoError(t, err)
	}
}

func assertStatusMatchesLatestTracking(t *testing.T, o *Order) {
	t.Helper()
	require.NotEmpty(t, o.Trackings)
	assert.Equal(t, o.Status, o.Trackings[len(o.Trackings)-1].Status)
}

// ============================================
// Create Tests
// ============================================

func TestService_Create_Success(t *testing.T) {
	service, eventStore := newTestOrderService()

	o := createOrder(t, service, PaymentCOD)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "ORD20240131001", o.OrderCode)
	assert.Equal(t, "user-1", o.UserID)
	assert.Equal(t, int64(2_000_000), o.TotalPrice)
	assert.Equal(t, int64(1_000_000), o.Items[1].Subtotal)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentUnpaid, o.PaymentStatus)
	require.Len(t, o.Trackings, 1)
	assert.Equal(t, "Order placed and awaiting confirmation", o.Trackings[0].Description)
	assert.Equal(t, "user-1", o.Trackings[0].Actor)
	assert.Equal(t, []string{EventOrderCreated}, eventStore.EventTypes(o.ID))
}

func TestService_Create_PayPalStartsPendingUnpaid(t *testing.T) {
	service, _ := newTestOrderService()

	o := createOrder(t, service, PaymentPayPal)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentUnpaid, o.PaymentStatus)
}

func TestService_Create_SequentialCodes(t *testing.T) {
	service, _ := newTestOrderService()

	first := createOrder(t, service, PaymentCOD)
	second := createOrder(t, service, PaymentCOD)

	assert.Equal(t, "ORD20240131001", first.OrderCode)
	assert.Equal(t, "ORD20240131002", second.OrderCode)
}

func TestService_Create_EmptyItems(t *testing.T) {
	service, eventStore := newTestOrderService()

	_, err := service.Create(context.Background(), CreateInput{UserID: "user-1", Shipping: validShipping(), PaymentMethod: PaymentCOD})

	assert.ErrorIs(t, err, ErrCartEmpty)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_Create_InvalidShipping(t *testing.T) {
	service, eventStore := newTestOrderService()
	shipping := validShipping()
	shipping.ShippingAddress = ""

	_, err := service.Create(context.Background(), CreateInput{UserID: "user-1", Shipping: shipping, PaymentMethod: PaymentCOD, Items: twoLineItems()})

	assert.Equal(t, "shipping_address", apperr.FieldOf(err))
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_Create_PersistFailure(t *testing.T) {
	service, eventStore := newTestOrderService()
	eventStore.AppendErr = errors.New("db down")

	_, err := service.Create(context.Background(), CreateInput{UserID: "user-1", Shipping: validShipping(), PaymentMethod: PaymentCOD, Items: twoLineItems()})

	assert.ErrorIs(t, err, ErrOrderPersistFailed)
	assert.Equal(t, apperr.KindTransient, apperr.KindOf(err))
}

// ============================================
// Transition Tests
// ============================================

func TestService_Transition_FullLifecycle(t *testing.T) {
	service, eventStore := newTestOrderService()
	o := createOrder(t, service, PaymentPayPal)

	moveTo(t, service, o.ID, StatusConfirmed, StatusProcessing, StatusShipping, StatusDelivered, StatusCompleted)

	got, err := service.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Len(t, got.Trackings, 6)
	assertStatusMatchesLatestTracking(t, got)
	assert.Equal(t, "Order completed", got.Trackings[5].Description)
	// PAYPAL orders are not settled by completion
	assert.Equal(t, PaymentUnpaid, got.PaymentStatus)
	assert.Equal(t, 5, eventStore.CountCalls(EventOrderStatusChanged))
}

func TestService_Transition_EachStepAddsOneTracking(t *testing.T) {
	service, _ := newTestOrderService()
	o := createOrder(t, service, PaymentCOD)

	got, err := service.Transition(context.Background(), o.ID, StatusConfirmed, TransitionInput{
		Actor: "admin-1", Description: "Called the customer", Location: "HCMC warehouse",
	})

	require.NoError(t, err)
	require.Len(t, got.Trackings, 2)
	entry := got.Trackings[1]
	assert.Equal(t, StatusConfirmed, entry.Status)
	assert.Equal(t, "Called the customer", entry.Description)
	assert.Equal(t, "HCMC warehouse", entry.Location)
	assert.Equal(t, "admin-1", entry.Actor)
	assert.True(t, entry.CreatedAt.Equal(fixedNow))
	assertStatusMatchesLatestTracking(t, got)
}

func TestService_Transition_CODCompletionMarksPaid(t *testing.T) {
	service, _ := newTestOrderService()
	o := createOrder(t, service, PaymentCOD)

	moveTo(t, service, o.ID, StatusConfirmed, StatusProcessing, StatusShipping, StatusDelivered, StatusCompleted)

	got, err := service.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, got.PaymentStatus)
	require.NotNil(t, got.PaidAt)
	assert.True(t, got.PaidAt.Equal(fixedNow))
	assert.Len(t, got.Trackings, 6)
}

func TestService_Transition_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		path   []Status
		target Status
	}{
		{"backward", []Status{StatusConfirmed, StatusProcessing}, StatusConfirmed},
		{"skip", nil, StatusShipping},
		{"same state", []Status{StatusConfirmed}, StatusConfirmed},
		{"out of completed", []Status{StatusConfirmed, StatusProcessing, StatusShipping, StatusDelivered, StatusCompleted}, StatusCancelled},
		{"out of cancelled", []Status{StatusCancelled}, StatusConfirmed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, eventStore := newTestOrderService()
			o := createOrder(t, service, PaymentCOD)
			moveTo(t, service, o.ID, tt.path...)
			before := len(eventStore.AppendCalls)

			_, err := service.Transition(context.Background(), o.ID, tt.target, TransitionInput{Actor: "admin-1"})

			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
			assert.Len(t, eventStore.AppendCalls, before)
		})
	}
}

func TestService_Transition_CancelFromAnyNonTerminal(t *testing.T) {
	paths := [][]Status{
		nil,
		{StatusConfirmed},
		{StatusConfirmed, StatusProcessing},
		{StatusConfirmed, StatusProcessing, StatusShipping},
		{StatusConfirmed, StatusProcessing, StatusShipping, StatusDelivered},
	}

	for _, path := range paths {
		service, _ := newTestOrderService()
		o := createOrder(t, service, PaymentCOD)
		moveTo(t, service, o.ID, path...)

		got, err := service.Transition(context.Background(), o.ID, StatusCancelled, TransitionInput{Actor: "admin-1"})

		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.Status)
		assert.Equal(t, "Order has been cancelled", got.Trackings[len(got.Trackings)-1].Description)
	}
}

func TestService_Transition_UnknownStatus(t *testing.T) {
	service, _ := newTestOrderService()
	o := createOrder(t, service, PaymentCOD)

	_, err := service.Transition(context.Background(), o.ID, Status("LOST"), TransitionInput{})

	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestService_Transition_OrderNotFound(t *testing.T) {
	service, _ := newTestOrderService()

	_, err := service.Transition(context.Background(), "missing", StatusConfirmed, TransitionInput{})

	assert.ErrorIs(t, err, ErrOrderNotFound)
}

// ============================================
// Customer Cancel Tests
// ============================================

func TestService_Cancel_FromPending(t *testing.T) {
	service, _ := newTestOrderService()
	o := createOrder(t, service, PaymentCOD)

	got, err := service.Cancel(context.Background(), o.ID, "user-1")

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	require.Len(t, got.Trackings, 2)
	assert.Equal(t, "Order cancelled by customer", got.Trackings[1].Description)
	assert.Equal(t, "user-1", got.Trackings[1].Actor)
}

func TestService_Cancel_NotPending(t *testing.T) {
	for _, path := range [][]Status{
		{StatusConfirmed},
		{StatusConfirmed, StatusProcessing},
		{StatusConfirmed, StatusProcessing, StatusShipping},
		{StatusConfirmed, StatusProcessing, StatusShipping, StatusDelivered},
		{StatusCancelled},
	} {
		service, _ := newTestOrderService()
		o := createOrder(t, service, PaymentCOD)
		moveTo(t, service, o.ID, path...)

		_, err := service.Cancel(context.Background(), o.ID, "user-1")

		assert.ErrorIs(t, err, ErrCannotCancel, "after %v", path)
	}
}

// ============================================
// Payment Tests
// ============================================

func TestService_InitiatePayment_RecordsProviderOrder(t *testing.T) {
	service, _ := newTestOrderService()
	o := createOrder(t, service, PaymentPayPal)

	got, err := service.InitiatePayment(context.Background(), o.ID, "PAYPAL-1", "80.00", "USD")

	require.NoError(t, err)
	assert.Equal(t, "PAYPAL-1", got.ProviderOrderID)
	assert.Len(t, got.Trackings, 1)
}

func TestService_InitiatePayment_Rejected(t *testing.T) {
	service, _ := newTestOrderService()
	cod := createOrder(t, service, PaymentCOD)
	cancelled := createOrder(t, service, PaymentPayPal)
	_, err := service.Cancel(context.Background(), cancelled.ID, "user-1")
	require.NoError(t, err)

	_, err = service.InitiatePayment(context.Background(), cod.ID, "PAYPAL-1", "80.00", "USD")
	assert.ErrorIs(t, err, ErrPaymentNotAllowed)

	_, err = service.InitiatePayment(context.Background(), cancelled.ID, "PAYPAL-2", "80.00", "USD")
	assert.ErrorIs(t, err, ErrPaymentNotAllowed)
}

func TestService_MarkPaid_Success(t *testing.T) {
	service, eventStore := newTestOrderService()
	o := createOrder(t, service, PaymentPayPal)
	_, err := service.InitiatePayment(context.Background(), o.ID, "PAYPAL-1", "80.00", "USD")
	require.NoError(t, err)

	got, err := service.MarkPaid(context.Background(), o.ID, "PAYPAL-1", "TX-1", "user-1")

	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, got.PaymentStatus)
	assert.Equal(t, "TX-1", got.ProviderTransactionID)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, StatusPending, got.Status)
	require.Len(t, got.Trackings, 2)
	assert.Equal(t, "Payment received via PayPal", got.Trackings[1].Description)
	assert.Equal(t, []string{EventOrderCreated, EventPaymentInitiated, EventOrderPaid}, eventStore.EventTypes(o.ID))
}

func TestService_MarkPaid_Mismatch(t *testing.T) {
	service, eventStore := newTestOrderService()
	o := createOrder(t, service, PaymentPayPal)
	_, err := service.InitiatePayment(context.Background(), o.ID, "PAYPAL-1", "80.00", "USD")
	require.NoError(t, err)

	_, err = service.MarkPaid(context.Background(), o.ID, "PAYPAL-OTHER", "TX-1", "user-1")

	assert.ErrorIs(t, err, ErrPaymentMismatch)
	assert.Equal(t, 0, eventStore.CountCalls(EventOrderPaid))
}

func TestService_MarkPaid_ConcurrentCallsPayOnce(t *testing.T) {
	service, eventStore := newTestOrderService()
	o := createOrder(t, service, PaymentPayPal)
	_, err := service.InitiatePayment(context.Background(), o.ID, "PAYPAL-1", "80.00", "USD")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.MarkPaid(context.Background(), o.ID, "PAYPAL-1", "TX-1", "user-1")
		}(i)
	}
	wg.Wait()

	var ok, already int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadyPaid):
			already++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 9, already)
	assert.Equal(t, 1, eventStore.CountCalls(EventOrderPaid))
}

// raceGate holds the first two event reads until both have happened, so two
// services decide on the same order version, as two API replicas would.
type raceGate struct {
	*mocks.MockEventStore
	reads   atomic.Int32
	arrived sync.WaitGroup
}

func newRaceGate(es *mocks.MockEventStore) *raceGate {
	g := &raceGate{MockEventStore: es}
	g.arrived.Add(2)
	return g
}

func (g *raceGate) GetEvents(ctx context.Context, aggregateID string) ([]store.Event, error) {
	events, err := g.MockEventStore.GetEvents(ctx, aggregateID)
	if g.reads.Add(1) <= 2 {
		g.arrived.Done()
		g.arrived.Wait()
	}
	return events, err
}

func TestService_CancelRacingConfirmAcrossInstances(t *testing.T) {
	creator, eventStore := newTestOrderService()
	o := createOrder(t, creator, PaymentCOD)

	gate := newRaceGate(eventStore)
	customerSide := NewService(gate, nil)
	adminSide := NewService(gate, nil)

	var wg sync.WaitGroup
	var cancelErr, confirmErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, cancelErr = customerSide.Cancel(context.Background(), o.ID, "user-1")
	}()
	go func() {
		defer wg.Done()
		_, confirmErr = adminSide.Transition(context.Background(), o.ID, StatusConfirmed, TransitionInput{Actor: "admin-1"})
	}()
	wg.Wait()

	got, err := creator.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{EventOrderCreated, EventOrderStatusChanged}, eventStore.EventTypes(o.ID))
	require.Len(t, got.Trackings, 2)
	assertStatusMatchesLatestTracking(t, got)

	switch {
	case cancelErr == nil:
		assert.ErrorIs(t, confirmErr, ErrInvalidTransition)
		assert.Equal(t, StatusCancelled, got.Status)
	case confirmErr == nil:
		assert.ErrorIs(t, cancelErr, ErrCannotCancel)
		assert.Equal(t, StatusConfirmed, got.Status)
	default:
		t.Fatalf("both writers failed: cancel=%v confirm=%v", cancelErr, confirmErr)
	}
}

// ============================================
// Rebuild Tests
// ============================================

func TestService_Get_RebuildsFromSnapshot(t *testing.T) {
	service, eventStore := newTestOrderService()
	o := createOrder(t, service, PaymentPayPal)
	// nine retries of the provider order bring the stream to the snapshot threshold
	for i := 0; i < 9; i++ {
		_, err := service.InitiatePayment(context.Background(), o.ID, "PAYPAL-RETRY", "80.00", "USD")
		require.NoError(t, err)
	}
	require.Equal(t, 1, eventStore.SaveSnapshotCalls)
	moveTo(t, service, o.ID, StatusConfirmed)

	got, err := service.Get(context.Background(), o.ID)

	require.NoError(t, err)
	assert.Equal(t, 11, got.Version)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.Equal(t, "PAYPAL-RETRY", got.ProviderOrderID)
	assert.Equal(t, int64(2_000_000), got.TotalPrice)
	assert.Len(t, got.Trackings, 2)
}
