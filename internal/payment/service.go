package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"

	"github.com/example/phone-store/internal/apperr"
	"github.com/example/phone-store/internal/domain/order"
)

// OrderPayments is the part of the order service the payment flow drives.
type OrderPayments interface {
	Get(ctx context.Context, orderID string) (*order.Order, error)
	InitiatePayment(ctx context.Context, orderID, providerOrderID, amount, currency string) (*order.Order, error)
	MarkPaid(ctx context.Context, orderID, providerOrderID, transactionID, actor string) (*order.Order, error)
}

type Config struct {
	ReturnURL string
	CancelURL string
}

// CreateResult describes a provider order started for an internal order.
type CreateResult struct {
	OrderID         string `json:"order_id"`
	ProviderOrderID string `json:"provider_order_id"`
	Status          string `json:"status"`
	ApprovalURL     string `json:"approval_url"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
}

type CaptureResult struct {
	Success               bool         `json:"success"`
	ProviderTransactionID string       `json:"provider_transaction_id"`
	AlreadyCaptured       bool         `json:"already_captured"`
	Order                 *order.Order `json:"order"`
}

// Service correlates provider orders with internal orders.
type Service struct {
	orders   OrderPayments
	provider Provider
	fx       *Converter
	cfg      Config
}

func NewService(orders OrderPayments, provider Provider, fx *Converter, cfg Config) *Service {
	return &Service{orders: orders, provider: provider, fx: fx, cfg: cfg}
}

// CreateProviderOrder starts a provider payment for an unpaid PAYPAL order and
// records the provider order id on it.
func (s *Service) CreateProviderOrder(ctx context.Context, orderID, actor string) (*CreateResult, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := o.CanPayOnline(); err != nil {
		return nil, err
	}

	amount := s.fx.Convert(o.TotalPrice)
	po, err := s.provider.CreateOrder(ctx, ProviderOrderRequest{
		ReferenceID: o.ID,
		Amount:      amount,
		Currency:    s.fx.Currency(),
		Description: "Order " + o.OrderCode,
		ReturnURL:   withOrderID(s.cfg.ReturnURL, o.ID),
		CancelURL:   withOrderID(s.cfg.CancelURL, o.ID),
	})
	if err != nil {
		log.Printf("[Payment] Provider order creation failed for %s: %v", o.OrderCode, err)
		return nil, err
	}

	if _, err := s.orders.InitiatePayment(ctx, o.ID, po.ID, amount.StringFixed(2), s.fx.Currency()); err != nil {
		return nil, err
	}
	log.Printf("[Payment] Provider order %s created for %s by %s (%s %s)", po.ID, o.OrderCode, actor, amount.StringFixed(2), s.fx.Currency())

	return &CreateResult{
		OrderID:         o.ID,
		ProviderOrderID: po.ID,
		Status:          po.Status,
		ApprovalURL:     po.ApprovalURL,
		Amount:          amount.StringFixed(2),
		Currency:        s.fx.Currency(),
	}, nil
}

// CaptureProviderOrder captures an approved provider order and marks the
// order paid. Capturing an order that is already paid returns the stored
// result without calling the provider.
func (s *Service) CaptureProviderOrder(ctx context.Context, providerOrderID, payerID, orderID, actor string) (*CaptureResult, error) {
	if providerOrderID == "" {
		return nil, apperr.Validation("provider_order_id", "provider order id is required")
	}

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.ProviderOrderID == "" || o.ProviderOrderID != providerOrderID {
		return nil, mismatch(o, providerOrderID)
	}
	if o.IsPaid() {
		return alreadyCaptured(o), nil
	}
	if err := o.CanPayOnline(); err != nil {
		return nil, err
	}

	capture, err := s.provider.CaptureOrder(ctx, providerOrderID, "capture-"+providerOrderID)
	if err != nil {
		log.Printf("[Payment] Capture failed for %s (payer %s): %v", o.OrderCode, payerID, err)
		return nil, err
	}

	paid, err := s.orders.MarkPaid(ctx, orderID, providerOrderID, capture.TransactionID, actor)
	if errors.Is(err, order.ErrAlreadyPaid) {
		return alreadyCaptured(paid), nil
	}
	if err != nil {
		return nil, err
	}
	log.Printf("[Payment] Order %s paid, transaction %s", paid.OrderCode, capture.TransactionID)

	return &CaptureResult{Success: true, ProviderTransactionID: capture.TransactionID, Order: paid}, nil
}

// mismatch names the provider order the caller tried to capture.
func mismatch(o *order.Order, providerOrderID string) error {
	return apperr.Wrap(order.ErrPaymentMismatch, fmt.Errorf("order %s is not bound to provider order %s", o.OrderCode, providerOrderID))
}

func alreadyCaptured(o *order.Order) *CaptureResult {
	return &CaptureResult{
		Success:               true,
		ProviderTransactionID: o.ProviderTransactionID,
		AlreadyCaptured:       true,
		Order:                 o,
	}
}

func withOrderID(raw, orderID string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("orderId", orderID)
	u.RawQuery = q.Encode()
	return u.String()
}
