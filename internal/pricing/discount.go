package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidPercent is returned when a discount percentage falls outside [0,100].
var ErrInvalidPercent = errors.New("pricing: discount percent must be between 0 and 100")

var oneHundred = decimal.NewFromInt(100)

// ValidatePercent ensures the percentage is within the accepted range.
func ValidatePercent(percent int) error {
	if percent < 0 || percent > 100 {
		return ErrInvalidPercent
	}
	return nil
}

// FromMinorUnits converts a processor minor-unit amount (e.g. cents) into a
// two-decimal major-unit amount. 5000 becomes 50.00 exactly.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// ApplyDiscount computes base * (1 - percent/100) rounded to two decimal
// places, half away from zero. The result is display and metadata only: the
// processor computes the authoritative discounted total from the coupon, so
// rounding here mirrors the remote's to avoid operator confusion.
func ApplyDiscount(base decimal.Decimal, percent int) decimal.Decimal {
	if percent == 0 {
		return base.Round(2)
	}
	factor := oneHundred.Sub(decimal.NewFromInt(int64(percent))).Div(oneHundred)
	return base.Mul(factor).Round(2)
}
