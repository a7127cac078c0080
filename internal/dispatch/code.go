package dispatch

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const codeDigits = 6

var codeSpace = big.NewInt(1_000_000)

// NewCode returns a uniformly random zero-padded six digit code.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate dispatch code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
