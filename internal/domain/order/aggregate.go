package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/phone-store/internal/apperr"
	"github.com/example/phone-store/internal/domain/aggregate"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Order"

var (
	ErrOrderNotFound      = apperr.New(apperr.KindNotFound, "ORDER_NOT_FOUND", "order not found")
	ErrCartEmpty          = apperr.New(apperr.KindValidation, "CART_EMPTY", "cart is empty")
	ErrOrderPersistFailed = apperr.New(apperr.KindTransient, "ORDER_PERSIST_FAILED", "order could not be saved, please try again")
	ErrInvalidTransition  = apperr.New(apperr.KindConflict, "INVALID_TRANSITION", "invalid order status transition")
	ErrCannotCancel       = apperr.New(apperr.KindConflict, "CANNOT_CANCEL", "only pending orders can be cancelled")
	ErrPaymentNotAllowed  = apperr.New(apperr.KindConflict, "PAYMENT_NOT_ALLOWED", "order cannot be paid online")
	ErrPaymentMismatch    = apperr.New(apperr.KindConflict, "PAYMENT_MISMATCH", "payment does not belong to this order")
	ErrAlreadyPaid        = apperr.New(apperr.KindConflict, "ALREADY_PAID", "order is already paid")
	ErrInvalidStatus      = apperr.Validation("status", "unknown order status")
)

type Order struct {
	ID                    string        `json:"id"`
	OrderCode             string        `json:"order_code"`
	UserID                string        `json:"user_id"`
	RecipientName         string        `json:"recipient_name"`
	Phone                 string        `json:"phone"`
	ShippingAddress       string        `json:"shipping_address"`
	Note                  string        `json:"note,omitempty"`
	PaymentMethod         PaymentMethod `json:"payment_method"`
	PaymentStatus         PaymentStatus `json:"payment_status"`
	Status                Status        `json:"status"`
	TotalPrice            int64         `json:"total_price"`
	Items                 []Item        `json:"items"`
	Trackings             []Tracking    `json:"trackings"`
	ProviderOrderID       string        `json:"provider_order_id,omitempty"`
	ProviderTransactionID string        `json:"provider_transaction_id,omitempty"`
	PaidAt                *time.Time    `json:"paid_at,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
	Version               int           `json:"version"`
}

func (o *Order) GetID() string   { return o.ID }
func (o *Order) GetVersion() int { return o.Version }

func (o *Order) IsPaid() bool { return o.PaymentStatus == PaymentPaid }

// CanPayOnline reports why a provider payment cannot be started, if it cannot.
func (o *Order) CanPayOnline() error {
	switch {
	case o.PaymentMethod != PaymentPayPal:
		return apperr.Wrap(ErrPaymentNotAllowed, fmt.Errorf("payment method is %s", o.PaymentMethod))
	case o.IsPaid():
		return ErrAlreadyPaid
	case o.Status == StatusCancelled:
		return apperr.Wrap(ErrPaymentNotAllowed, fmt.Errorf("order is cancelled"))
	}
	return nil
}

func (o *Order) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventOrderCreated:
		var data OrderCreated
		if err := event.Decode(&data); err != nil {
			return err
		}
		o.ID = data.OrderID
		o.OrderCode = data.OrderCode
		o.UserID = data.UserID
		o.RecipientName = data.RecipientName
		o.Phone = data.Phone
		o.ShippingAddress = data.ShippingAddress
		o.Note = data.Note
		o.PaymentMethod = data.PaymentMethod
		o.PaymentStatus = PaymentUnpaid
		o.Status = data.Tracking.Status
		o.TotalPrice = data.TotalPrice
		o.Items = data.Items
		o.Trackings = []Tracking{data.Tracking}
		o.CreatedAt = data.CreatedAt
		o.UpdatedAt = data.CreatedAt
	case EventOrderStatusChanged:
		var data OrderStatusChanged
		if err := event.Decode(&data); err != nil {
			return err
		}
		o.Status = data.To
		o.Trackings = append(o.Trackings, data.Tracking)
		if data.PaymentStatus != "" {
			o.PaymentStatus = data.PaymentStatus
			o.PaidAt = data.PaidAt
		}
		o.UpdatedAt = data.ChangedAt
	case EventPaymentInitiated:
		var data PaymentInitiated
		if err := event.Decode(&data); err != nil {
			return err
		}
		o.ProviderOrderID = data.ProviderOrderID
		o.UpdatedAt = data.InitiatedAt
	case EventOrderPaid:
		var data OrderPaid
		if err := event.Decode(&data); err != nil {
			return err
		}
		paidAt := data.PaidAt
		o.PaymentStatus = PaymentPaid
		o.PaidAt = &paidAt
		o.ProviderOrderID = data.ProviderOrderID
		o.ProviderTransactionID = data.ProviderTransactionID
		o.Trackings = append(o.Trackings, data.Tracking)
		o.UpdatedAt = data.PaidAt
	}
	o.Version = event.Version
	return nil
}

// CreateInput is the server-side cart snapshot plus the checkout form
type CreateInput struct {
	UserID        string
	Shipping      ShippingInfo
	PaymentMethod PaymentMethod
	Items         []Item
}

// TransitionInput describes the tracking entry of an admin status update
type TransitionInput struct {
	Actor       string
	Description string
	Location    string
}

type Service struct {
	eventStore store.EventStoreInterface
	codes      CodeSequence
	now        func() time.Time
	locks      keyedMutex
}

func NewService(es store.EventStoreInterface, codes CodeSequence) *Service {
	if codes == nil {
		codes = NewMemoryCodeSequence()
	}
	return &Service{eventStore: es, codes: codes, now: time.Now}
}

func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	o, found, err := aggregate.LoadAggregate(ctx, s.eventStore, orderID, func() *Order { return &Order{ID: orderID} })
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// Create validates the snapshot and records OrderCreated. Nothing is written
// unless every check passes. Any storage failure is ErrOrderPersistFailed.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Order, error) {
	if len(in.Items) == 0 {
		return nil, ErrCartEmpty
	}
	if err := ValidateShipping(in.Shipping, in.PaymentMethod); err != nil {
		return nil, err
	}
	shipping := in.Shipping.Normalized()

	items := make([]Item, len(in.Items))
	var total int64
	for i, it := range in.Items {
		it.Subtotal = it.Price * int64(it.Quantity)
		total += it.Subtotal
		items[i] = it
	}

	now := s.now()
	seq, err := s.codes.Next(ctx, now)
	if err != nil {
		return nil, apperr.Wrap(ErrOrderPersistFailed, err)
	}

	o := &Order{ID: uuid.New().String()}
	_, err = aggregate.Record(ctx, s.eventStore, o, AggregateType, EventOrderCreated, OrderCreated{
		OrderID:         o.ID,
		OrderCode:       FormatCode(now, seq),
		UserID:          in.UserID,
		RecipientName:   shipping.RecipientName,
		Phone:           shipping.Phone,
		ShippingAddress: shipping.ShippingAddress,
		Note:            shipping.Note,
		PaymentMethod:   in.PaymentMethod,
		Items:           items,
		TotalPrice:      total,
		Tracking: Tracking{
			Status:      StatusPending,
			Description: DefaultDescription(StatusPending),
			Actor:       in.UserID,
			CreatedAt:   now,
		},
		CreatedAt: now,
	})
	if err != nil {
		return nil, apperr.Wrap(ErrOrderPersistFailed, err)
	}
	return o, nil
}

// update loads the order, lets decide pick the event to record and records
// it at the loaded version. A concurrent writer from another process makes
// Record fail with store.ErrVersionConflict; the order is then reloaded and
// decide runs again on the winning state.
func (s *Service) update(ctx context.Context, orderID string, decide func(o *Order) (string, any, error)) (*Order, error) {
	unlock := s.locks.lock(orderID)
	defer unlock()

	var o *Order
	err := aggregate.RetryOnConflict(func() error {
		var err error
		if o, err = s.Get(ctx, orderID); err != nil {
			return err
		}
		eventType, data, err := decide(o)
		if err != nil {
			return err
		}
		_, err = aggregate.Record(ctx, s.eventStore, o, AggregateType, eventType, data)
		return err
	})
	return o, err
}

// Transition is the admin status update. A COD order completed while unpaid
// is settled by the same event.
func (s *Service) Transition(ctx context.Context, orderID string, target Status, in TransitionInput) (*Order, error) {
	if _, ok := ParseStatus(string(target)); !ok {
		return nil, ErrInvalidStatus
	}

	o, err := s.update(ctx, orderID, func(o *Order) (string, any, error) {
		if !o.Status.CanTransition(target) {
			return "", nil, apperr.Wrap(ErrInvalidTransition, fmt.Errorf("%s -> %s", o.Status, target))
		}

		description := in.Description
		if description == "" {
			description = DefaultDescription(target)
		}
		now := s.now()
		event := OrderStatusChanged{
			OrderID: orderID,
			UserID:  o.UserID,
			From:    o.Status,
			To:      target,
			Tracking: Tracking{
				Status:      target,
				Description: description,
				Location:    in.Location,
				Actor:       in.Actor,
				CreatedAt:   now,
			},
			ChangedAt: now,
		}
		if target == StatusCompleted && o.PaymentMethod == PaymentCOD && !o.IsPaid() {
			event.PaymentStatus = PaymentPaid
			event.PaidAt = &now
		}
		return EventOrderStatusChanged, event, nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Cancel is the customer cancel, allowed only while the order is PENDING.
func (s *Service) Cancel(ctx context.Context, orderID, actor string) (*Order, error) {
	o, err := s.update(ctx, orderID, func(o *Order) (string, any, error) {
		if o.Status != StatusPending {
			return "", nil, ErrCannotCancel
		}
		now := s.now()
		return EventOrderStatusChanged, OrderStatusChanged{
			OrderID: orderID,
			UserID:  o.UserID,
			From:    o.Status,
			To:      StatusCancelled,
			Tracking: Tracking{
				Status:      StatusCancelled,
				Description: descriptionCustomerCancel,
				Actor:       actor,
				CreatedAt:   now,
			},
			ChangedAt: now,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// InitiatePayment records the provider order created for this order.
// It adds no tracking entry.
func (s *Service) InitiatePayment(ctx context.Context, orderID, providerOrderID, amount, currency string) (*Order, error) {
	o, err := s.update(ctx, orderID, func(o *Order) (string, any, error) {
		if err := o.CanPayOnline(); err != nil {
			return "", nil, err
		}
		return EventPaymentInitiated, PaymentInitiated{
			OrderID:         orderID,
			ProviderOrderID: providerOrderID,
			Amount:          amount,
			Currency:        currency,
			InitiatedAt:     s.now(),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// MarkPaid settles the order after a successful capture. When the order is
// already paid the current order is returned together with ErrAlreadyPaid.
func (s *Service) MarkPaid(ctx context.Context, orderID, providerOrderID, transactionID, actor string) (*Order, error) {
	o, err := s.update(ctx, orderID, func(o *Order) (string, any, error) {
		if o.IsPaid() {
			return "", nil, ErrAlreadyPaid
		}
		if o.ProviderOrderID == "" || o.ProviderOrderID != providerOrderID {
			return "", nil, ErrPaymentMismatch
		}
		if o.Status == StatusCancelled {
			return "", nil, apperr.Wrap(ErrPaymentNotAllowed, fmt.Errorf("order is cancelled"))
		}
		now := s.now()
		return EventOrderPaid, OrderPaid{
			OrderID:               orderID,
			UserID:                o.UserID,
			ProviderOrderID:       providerOrderID,
			ProviderTransactionID: transactionID,
			Tracking: Tracking{
				Status:      o.Status,
				Description: descriptionPayPalPayment,
				Actor:       actor,
				CreatedAt:   now,
			},
			PaidAt: now,
		}, nil
	})
	switch {
	case errors.Is(err, ErrAlreadyPaid):
		return o, err
	case err != nil:
		return nil, err
	}
	return o, nil
}
