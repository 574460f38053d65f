package product

import (
	"context"
	"testing"

	"github.com/example/phone-store/internal/apperr"
	"github.com/example/phone-store/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProductService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	return NewService(eventStore), eventStore
}

var validInput = Input{Name: "Phone X", Description: "6.1 inch", Brand: "Acme", Price: 12_990_000}

// ============================================
// Create Tests
// ============================================

func TestService_Create_ValidProduct(t *testing.T) {
	service, eventStore := newTestProductService()

	p, err := service.Create(context.Background(), validInput)

	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, StatusActive, p.Status)
	assert.Equal(t, int64(12_990_000), p.Price)
	assert.Equal(t, 1, p.Version)
	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventProductCreated, eventStore.AppendCalls[0].EventType)
	assert.Equal(t, p.ID, eventStore.AppendCalls[0].AggregateID)
}

func TestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name      string
		input     Input
		wantField string
	}{
		{"blank name", Input{Name: "  ", Price: 1}, "name"},
		{"zero price", Input{Name: "Phone", Price: 0}, "price"},
		{"negative price", Input{Name: "Phone", Price: -5}, "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, eventStore := newTestProductService()

			_, err := service.Create(context.Background(), tt.input)

			assert.ErrorIs(t, err, apperr.ErrValidationFailed)
			assert.Equal(t, tt.wantField, apperr.FieldOf(err))
			assert.Empty(t, eventStore.AppendCalls)
		})
	}
}

// ============================================
// Update / Status Tests
// ============================================

func TestService_Update_ChangesPrice(t *testing.T) {
	service, _ := newTestProductService()
	ctx := context.Background()
	p, _ := service.Create(ctx, validInput)

	in := validInput
	in.Price = 10_000_000
	updated, err := service.Update(ctx, p.ID, in)

	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), updated.Price)

	reloaded, err := service.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), reloaded.Price)
}

func TestService_Update_NotFound(t *testing.T) {
	service, _ := newTestProductService()

	_, err := service.Update(context.Background(), "missing", validInput)

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestService_SetStatus_DeactivatedIsUnavailable(t *testing.T) {
	service, eventStore := newTestProductService()
	ctx := context.Background()
	p, _ := service.Create(ctx, validInput)

	_, err := service.SetStatus(ctx, p.ID, StatusInactive)
	require.NoError(t, err)

	_, err = service.GetAvailable(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProductUnavailable)

	// same status again records nothing
	_, err = service.SetStatus(ctx, p.ID, StatusInactive)
	require.NoError(t, err)
	assert.Equal(t, 1, eventStore.CountCalls(EventProductStatusChanged))
}

func TestService_SetStatus_InvalidStatus(t *testing.T) {
	service, _ := newTestProductService()

	_, err := service.SetStatus(context.Background(), "p1", Status("GONE"))

	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
}

func TestService_Update_MovesCategory(t *testing.T) {
	service, _ := newTestProductService()
	ctx := context.Background()
	in := validInput
	in.CategoryID = "cat-phones"
	p, err := service.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "cat-phones", p.CategoryID)

	in.CategoryID = "cat-tablets"
	_, err = service.Update(ctx, p.ID, in)
	require.NoError(t, err)

	reloaded, err := service.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "cat-tablets", reloaded.CategoryID)
}
