package order

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipping   Status = "SHIPPING"
	StatusDelivered  Status = "DELIVERED"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusPending, StatusConfirmed, StatusProcessing, StatusShipping,
	StatusDelivered, StatusCompleted, StatusCancelled,
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentPayPal PaymentMethod = "PAYPAL"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
)

// validTransitions lists the forward step of every non-terminal status.
// CANCELLED is reachable from all of them.
var validTransitions = map[Status]Status{
	StatusPending:    StatusConfirmed,
	StatusConfirmed:  StatusProcessing,
	StatusProcessing: StatusShipping,
	StatusShipping:   StatusDelivered,
	StatusDelivered:  StatusCompleted,
}

var defaultDescriptions = map[Status]string{
	StatusPending:    "Order placed and awaiting confirmation",
	StatusConfirmed:  "Order has been confirmed",
	StatusProcessing: "Order is being prepared",
	StatusShipping:   "Order is out for delivery",
	StatusDelivered:  "Order has been delivered",
	StatusCompleted:  "Order completed",
	StatusCancelled:  "Order has been cancelled",
}

const (
	descriptionCustomerCancel = "Order cancelled by customer"
	descriptionPayPalPayment  = "Payment received via PayPal"
)

// ParseStatus accepts only the seven known statuses.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	if _, ok := defaultDescriptions[st]; ok {
		return st, true
	}
	return "", false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether an admin may move an order from s to target.
func (s Status) CanTransition(target Status) bool {
	if s.IsTerminal() {
		return false
	}
	if target == StatusCancelled {
		return true
	}
	return validTransitions[s] == target
}

// DefaultDescription is used for tracking entries recorded without one.
func DefaultDescription(s Status) string {
	if d, ok := defaultDescriptions[s]; ok {
		return d
	}
	return "Order status updated"
}

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentPayPal
}
