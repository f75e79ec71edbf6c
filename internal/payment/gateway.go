package payment

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrDeclined    = errors.New("payment declined")
	ErrUnavailable = errors.New("payment gateway unavailable")
)

// Details are handed to the external gateway and never persisted; only the
// masked reference it returns is kept on the order.
type Details struct {
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	CVC        string `json:"-"`
	Holder     string `json:"holder"`
}

type Gateway interface {
	// Authorize charges amountCents and returns an opaque reference on
	// success. ErrDeclined is terminal for the attempt; infrastructure
	// failures surface as ErrUnavailable.
	Authorize(ctx context.Context, amountCents int, d Details) (string, error)
}

// MaskRef reduces a card number to a last-4 display token.
func MaskRef(cardNumber string) string {
	digits := strings.ReplaceAll(cardNumber, " ", "")
	if len(digits) <= 4 {
		return "****" + digits
	}
	return "****" + digits[len(digits)-4:]
}
