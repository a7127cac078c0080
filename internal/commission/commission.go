package commission

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
)

var (
	hundred    = decimal.NewFromInt(100)
	maxPercent = hundred
)

// Breakdown is the money split of one line item.
type Breakdown struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	VendorPayout     decimal.Decimal `json:"vendor_payout"`
}

// Calculate splits unitPrice*quantity into the platform commission and the
// vendor payout. The commission is rounded to two decimals, half away from
// zero; the payout absorbs the rounding remainder.
func Calculate(unitPrice decimal.Decimal, quantity int, percent decimal.Decimal) (Breakdown, error) {
	if err := ValidatePercent(percent); err != nil {
		return Breakdown{}, err
	}
	if unitPrice.IsNegative() {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeInvalidRange, "unit price must not be negative").
			WithDetails(map[string]any{"unit_price": unitPrice.String()})
	}
	if quantity < 0 {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeInvalidRange, "quantity must not be negative").
			WithDetails(map[string]any{"quantity": quantity})
	}

	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	commission := Round2(subtotal.Mul(percent).Div(hundred))

	return Breakdown{
		Subtotal:         subtotal,
		CommissionAmount: commission,
		VendorPayout:     subtotal.Sub(commission),
	}, nil
}

// ValidatePercent fails with INVALID_RANGE outside [0, 100].
func ValidatePercent(percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(maxPercent) {
		return pkgerrors.New(pkgerrors.CodeInvalidRange, "commission percent must be between 0 and 100").
			WithDetails(map[string]any{"commission_percent": percent.String()})
	}
	return nil
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Matches reports whether the stored commission equals a fresh computation
// from the stored inputs.
func Matches(unitPrice decimal.Decimal, quantity int, percent, stored decimal.Decimal) bool {
	b, err := Calculate(unitPrice, quantity, percent)
	if err != nil {
		return false
	}
	return b.CommissionAmount.Equal(stored)
}
