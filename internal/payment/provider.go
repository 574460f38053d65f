package payment

import (
	"context"

	"github.com/example/phone-store/internal/apperr"
	"github.com/shopspring/decimal"
)

var (
	ErrPaymentCancelled = apperr.New(apperr.KindPayment, "PAYMENT_CANCELLED", "payment was cancelled")
	ErrPaymentFailed    = apperr.New(apperr.KindPayment, "PAYMENT_FAILED", "payment could not be completed")
)

type ProviderOrderRequest struct {
	ReferenceID string
	Amount      decimal.Decimal
	Currency    string
	Description string
	ReturnURL   string
	CancelURL   string
}

type ProviderOrder struct {
	ID          string
	Status      string
	ApprovalURL string
}

type Capture struct {
	TransactionID string
	Status        string
}

// Provider is the external payment capability. Implementations return errors
// matching ErrPaymentCancelled or ErrPaymentFailed.
type Provider interface {
	CreateOrder(ctx context.Context, req ProviderOrderRequest) (*ProviderOrder, error)
	CaptureOrder(ctx context.Context, providerOrderID, idempotencyKey string) (*Capture, error)
}
