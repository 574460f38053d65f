package inventory

import (
	"context"
	"testing"

	"github.com/example/phone-store/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInventoryService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	return NewService(eventStore), eventStore
}

func TestAggregateID_DiffersFromProductID(t *testing.T) {
	assert.Equal(t, "inv-prod-1", AggregateID("prod-1"))
}

// ============================================
// Stock Tests
// ============================================

func TestService_AddDeductRestore(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()

	inv, err := service.AddStock(ctx, "prod-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, inv.Stock)

	require.NoError(t, service.Deduct(ctx, "prod-1", "order-1", 3))
	require.NoError(t, service.Restore(ctx, "prod-1", "order-1", 3))

	inv, err = service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 5, inv.Stock)
	assert.Equal(t, []string{EventStockAdded, EventStockDeducted, EventStockRestored}, eventStore.EventTypes("inv-prod-1"))
}

func TestService_Deduct_Insufficient(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()
	_, _ = service.AddStock(ctx, "prod-1", 1)

	err := service.Deduct(ctx, "prod-1", "order-1", 2)

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 0, eventStore.CountCalls(EventStockDeducted))
}

func TestService_Check(t *testing.T) {
	service, _ := newTestInventoryService()
	ctx := context.Background()
	_, _ = service.AddStock(ctx, "prod-1", 2)

	assert.NoError(t, service.Check(ctx, "prod-1", 2))
	assert.ErrorIs(t, service.Check(ctx, "prod-1", 3), ErrInsufficientStock)
	assert.ErrorIs(t, service.Check(ctx, "never-stocked", 1), ErrInsufficientStock)
}

func TestService_InvalidQuantity(t *testing.T) {
	service, _ := newTestInventoryService()
	ctx := context.Background()

	_, err := service.AddStock(ctx, "prod-1", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.ErrorIs(t, service.Deduct(ctx, "prod-1", "o", -1), ErrInvalidQuantity)
	assert.ErrorIs(t, service.Restore(ctx, "prod-1", "o", 0), ErrInvalidQuantity)
}
