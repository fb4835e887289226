package cardnum

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"banking-core/internal/model"
)

// Length of generated numbers: prefix + 14 random digits + check digit.
const Length = 16

var ten = big.NewInt(10)

// Prefix returns the leading digit for a payment system. Unrecognized systems
// fall back to the VISA prefix.
func Prefix(ps model.PaymentSystem) string {
	switch ps {
	case model.PaymentSystemMastercard:
		return "5"
	default:
		return "4"
	}
}

// Generate returns a fresh Luhn-valid 16-digit number for ps. Digits come from
// crypto/rand. Uniqueness is the card store's concern.
func Generate(ps model.PaymentSystem) (string, error) {
	var b strings.Builder
	b.Grow(Length)
	b.WriteString(Prefix(ps))

	for b.Len() < Length-1 {
		d, err := RandomDigit()
		if err != nil {
			return "", fmt.Errorf("failed to generate card number: %w", err)
		}
		b.WriteByte('0' + byte(d))
	}

	payload := b.String()
	check, err := CheckDigit(payload)
	if err != nil {
		return "", err
	}
	return payload + strconv.Itoa(check), nil
}

// Validate reports whether number carries the prefix of ps and passes Luhn.
// Unknown payment systems have no prefix and never validate.
func Validate(number string, ps model.PaymentSystem) bool {
	if !ps.Valid() {
		return false
	}
	return strings.HasPrefix(number, Prefix(ps)) && IsValidLuhn(number)
}

// RandomDigit returns a uniformly distributed digit 0-9 from crypto/rand.
func RandomDigit() (int, error) {
	n, err := rand.Int(rand.Reader, ten)
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
