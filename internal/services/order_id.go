package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	orderIDPrefix      = "ORD-"
	orderIDDigits      = 10
	maxOrderIDAttempts = 3
)

var orderIDSpace = big.NewInt(10_000_000_000)

// NewOrderID returns a short human readable id such as ORD-0042137765.
// Uniqueness is enforced by the primary key; callers retry on collision.
func NewOrderID() (string, error) {
	n, err := rand.Int(rand.Reader, orderIDSpace)
	if err != nil {
		return "", fmt.Errorf("generate order id: %w", err)
	}
	return fmt.Sprintf("%s%0*d", orderIDPrefix, orderIDDigits, n.Int64()), nil
}
