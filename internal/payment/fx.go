package payment

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultVNDPerUSD is used when PAYPAL_VND_PER_USD is not set.
const DefaultVNDPerUSD = 25000

// Converter turns VND amounts into the provider currency at a fixed rate,
// rounded half-up to two decimals.
type Converter struct {
	rate     decimal.Decimal
	currency string
}

func NewConverter(vndPerUnit decimal.Decimal, currency string) (*Converter, error) {
	if !vndPerUnit.IsPositive() {
		return nil, fmt.Errorf("exchange rate must be positive, got %s", vndPerUnit)
	}
	if currency == "" {
		currency = "USD"
	}
	return &Converter{rate: vndPerUnit, currency: currency}, nil
}

func (c *Converter) Currency() string { return c.currency }

func (c *Converter) Convert(vnd int64) decimal.Decimal {
	return decimal.NewFromInt(vnd).Div(c.rate).Round(2)
}

// Format renders the converted amount the way PayPal expects it, e.g. "80.00".
func (c *Converter) Format(vnd int64) string {
	return c.Convert(vnd).StringFixed(2)
}
