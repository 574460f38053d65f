// Package checkout drives the storefront's checkout on top of the REST
// client. Identity is passed on every call and every returned object is the
// server's own.
package checkout

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/example/phone-store/internal/apperr"
	"github.com/example/phone-store/internal/client"
	"github.com/example/phone-store/internal/domain/cart"
	"github.com/example/phone-store/internal/domain/inventory"
	"github.com/example/phone-store/internal/domain/order"
	"github.com/example/phone-store/internal/domain/product"
	"github.com/example/phone-store/internal/payment"
)

var ErrCheckoutInProgress = apperr.New(apperr.KindConflict, "CHECKOUT_IN_PROGRESS", "an order is already being submitted")

// Session identifies the signed-in customer
type Session struct {
	UserID string
	Token  string
}

// Backend is the part of the store API the checkout needs. client.Client
// implements it.
type Backend interface {
	GetCart(ctx context.Context, token string) (*client.Cart, error)
	AddToCart(ctx context.Context, token, productID string, quantity int) (*client.Cart, error)
	UpdateCartItem(ctx context.Context, token, itemID string, quantity int) (*client.Cart, error)
	RemoveCartItem(ctx context.Context, token, itemID string) (*client.Cart, error)
	ClearCart(ctx context.Context, token string) (*client.Cart, error)

	PlaceOrder(ctx context.Context, token string, shipping order.ShippingInfo, method order.PaymentMethod) (*order.Order, error)
	GetOrder(ctx context.Context, token, orderID string) (*order.Order, error)
	CancelOrder(ctx context.Context, token, orderID string) (*order.Order, error)

	CreatePayPalOrder(ctx context.Context, token, orderID string) (*payment.CreateResult, error)
	CapturePayPalOrder(ctx context.Context, token, providerOrderID, payerID, orderID string) (*payment.CaptureResult, error)
}

// Outcome of a submitted checkout. Payment is set for PAYPAL orders once the
// provider order exists.
type Outcome struct {
	Order   *order.Order
	Payment *payment.CreateResult
}

// Approval is what the payer's return from the provider carries
type Approval struct {
	ProviderOrderID string
	PayerID         string
	Cancelled       bool
}

type Orchestrator struct {
	backend Backend

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func New(backend Backend) *Orchestrator {
	return &Orchestrator{
		backend:  backend,
		inFlight: make(map[string]struct{}),
	}
}

// Cart

func (o *Orchestrator) LoadCart(ctx context.Context, s Session) (*client.Cart, error) {
	return o.backend.GetCart(ctx, s.Token)
}

func (o *Orchestrator) AddItem(ctx context.Context, s Session, productID string, quantity int) (*client.Cart, error) {
	if quantity < 1 {
		return nil, cart.ErrInvalidQuantity
	}
	return o.backend.AddToCart(ctx, s.Token, productID, quantity)
}

func (o *Orchestrator) UpdateItem(ctx context.Context, s Session, itemID string, quantity int) (*client.Cart, error) {
	if quantity < 1 {
		return nil, cart.ErrInvalidQuantity
	}
	return o.backend.UpdateCartItem(ctx, s.Token, itemID, quantity)
}

func (o *Orchestrator) RemoveItem(ctx context.Context, s Session, itemID string) (*client.Cart, error) {
	return o.backend.RemoveCartItem(ctx, s.Token, itemID)
}

func (o *Orchestrator) ClearCart(ctx context.Context, s Session) (*client.Cart, error) {
	return o.backend.ClearCart(ctx, s.Token)
}

// Submit places the order for the cart the customer is looking at. The cart
// and the form are checked locally first; nothing is sent if either fails.
// When a PAYPAL provider order cannot be created, the persisted order is
// still returned together with the payment error.
func (o *Orchestrator) Submit(ctx context.Context, s Session, c *client.Cart, shipping order.ShippingInfo, method order.PaymentMethod) (*Outcome, error) {
	if c == nil || c.IsEmpty() {
		return nil, order.ErrCartEmpty
	}
	if err := order.ValidateShipping(shipping, method); err != nil {
		return nil, err
	}

	release, err := o.acquire(s.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	placed, err := o.backend.PlaceOrder(ctx, s.Token, shipping.Normalized(), method)
	if err != nil {
		return nil, persistError(err)
	}
	log.Printf("[Checkout] Placed %s for user %s (%s)", placed.OrderCode, s.UserID, method)

	out := &Outcome{Order: placed}
	if method != order.PaymentPayPal {
		return out, nil
	}

	pay, err := o.backend.CreatePayPalOrder(ctx, s.Token, placed.ID)
	if err != nil {
		return out, err
	}
	out.Payment = pay
	return out, nil
}

// CompletePayment finishes a PAYPAL order after the payer comes back from
// the provider and returns the order as the server now has it.
func (o *Orchestrator) CompletePayment(ctx context.Context, s Session, orderID string, a Approval) (*order.Order, error) {
	if a.Cancelled {
		return nil, payment.ErrPaymentCancelled
	}
	if _, err := o.backend.CapturePayPalOrder(ctx, s.Token, a.ProviderOrderID, a.PayerID, orderID); err != nil {
		return nil, err
	}
	return o.backend.GetOrder(ctx, s.Token, orderID)
}

// RetryPayment opens a new provider order for an unpaid PAYPAL order
func (o *Orchestrator) RetryPayment(ctx context.Context, s Session, orderID string) (*payment.CreateResult, error) {
	return o.backend.CreatePayPalOrder(ctx, s.Token, orderID)
}

func (o *Orchestrator) Cancel(ctx context.Context, s Session, orderID string) (*order.Order, error) {
	if _, err := o.backend.CancelOrder(ctx, s.Token, orderID); err != nil {
		return nil, err
	}
	return o.backend.GetOrder(ctx, s.Token, orderID)
}

func (o *Orchestrator) acquire(userID string) (func(), error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inFlight[userID]; busy {
		return nil, ErrCheckoutInProgress
	}
	o.inFlight[userID] = struct{}{}
	return func() {
		o.mu.Lock()
		delete(o.inFlight, userID)
		o.mu.Unlock()
	}, nil
}

// persistError maps failures where the order may not have been stored.
// Rejections the server explained are returned unchanged.
func persistError(err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindTransient, apperr.KindInternal:
		if errors.Is(err, order.ErrOrderPersistFailed) {
			return err
		}
		return apperr.Wrap(order.ErrOrderPersistFailed, err)
	}
	return err
}

// UserMessage turns an error into the text shown to the customer
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, order.ErrCartEmpty):
		return "Your cart is empty."
	case errors.Is(err, apperr.ErrValidationFailed):
		e, _ := apperr.As(err)
		return "Please check your details: " + e.Message + "."
	case errors.Is(err, ErrCheckoutInProgress):
		return "Your order is already being submitted."
	case errors.Is(err, order.ErrOrderPersistFailed):
		return "We could not place your order. Your cart was kept, please try again."
	case errors.Is(err, payment.ErrPaymentCancelled):
		return "You cancelled the PayPal payment. You can pay again from your order."
	case errors.Is(err, payment.ErrPaymentFailed):
		return "PayPal could not complete the payment. Please try again."
	case errors.Is(err, order.ErrCannotCancel):
		return "This order can no longer be cancelled."
	case errors.Is(err, inventory.ErrInsufficientStock):
		return "Some items in your cart are out of stock."
	case errors.Is(err, product.ErrProductUnavailable):
		return "Some items in your cart are no longer sold."
	}

	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindConflict:
		e, _ := apperr.As(err)
		return e.Message
	case apperr.KindUnauthorized:
		return "Please sign in again."
	case apperr.KindForbidden:
		return "You are not allowed to do that."
	case apperr.KindNotFound:
		return "We could not find what you were looking for."
	case apperr.KindPayment:
		return "The payment did not go through."
	case apperr.KindTransient:
		return "The store is temporarily unavailable. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
