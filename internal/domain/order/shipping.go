package order

import (
	"strings"

	"github.com/example/phone-store/internal/apperr"
)

// ShippingInfo is what the customer fills in at checkout.
type ShippingInfo struct {
	RecipientName   string `json:"recipient_name"`
	Phone           string `json:"phone"`
	ShippingAddress string `json:"shipping_address"`
	Note            string `json:"note,omitempty"`
}

// Normalized returns a copy with surrounding whitespace removed.
func (s ShippingInfo) Normalized() ShippingInfo {
	return ShippingInfo{
		RecipientName:   strings.TrimSpace(s.RecipientName),
		Phone:           strings.TrimSpace(s.Phone),
		ShippingAddress: strings.TrimSpace(s.ShippingAddress),
		Note:            strings.TrimSpace(s.Note),
	}
}

// ValidateShipping checks the checkout form. The same function runs in the
// storefront client before any request and in the API before any write.
func ValidateShipping(info ShippingInfo, method PaymentMethod) error {
	info = info.Normalized()
	if info.RecipientName == "" {
		return apperr.Validation("recipient_name", "recipient name is required")
	}
	if info.Phone == "" {
		return apperr.Validation("phone", "phone is required")
	}
	if !isValidPhone(info.Phone) {
		return apperr.Validation("phone", "phone must be 10 to 11 digits")
	}
	if info.ShippingAddress == "" {
		return apperr.Validation("shipping_address", "shipping address is required")
	}
	if !method.Valid() {
		return apperr.Validation("payment_method", "payment method must be COD or PAYPAL")
	}
	return nil
}

func isValidPhone(phone string) bool {
	if len(phone) < 10 || len(phone) > 11 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
