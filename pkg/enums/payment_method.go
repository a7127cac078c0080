package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod records how the customer paid. Settlement with the payment
// provider happens outside this service.
type PaymentMethod string

const (
	PaymentMethodCard          PaymentMethod = "CARD"
	PaymentMethodUPI           PaymentMethod = "UPI"
	PaymentMethodNetBanking    PaymentMethod = "NET_BANKING"
	PaymentMethodWallet        PaymentMethod = "WALLET"
	PaymentMethodCashOnDeliver PaymentMethod = "COD"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCard,
	PaymentMethodUPI,
	PaymentMethodNetBanking,
	PaymentMethodWallet,
	PaymentMethodCashOnDeliver,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	normalized := PaymentMethod(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
