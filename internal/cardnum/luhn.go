// Package cardnum generates and validates payment card numbers.
package cardnum

import "errors"

const (
	MinLength = 13
	MaxLength = 19
)

var ErrNotDigits = errors.New("card number payload must contain only decimal digits")

// CheckDigit computes the Luhn check digit for payload, the number without
// its final digit. The rightmost payload digit becomes the second-to-last
// digit of the full number, so doubling starts there.
func CheckDigit(payload string) (int, error) {
	if payload == "" {
		return 0, ErrNotDigits
	}

	sum := 0
	double := true
	for i := len(payload) - 1; i >= 0; i-- {
		c := payload[i]
		if c < '0' || c > '9' {
			return 0, ErrNotDigits
		}
		digit := int(c - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}

	return (10 - sum%10) % 10, nil
}

// IsValidLuhn reports whether number is 13-19 digits and passes the Luhn
// checksum. Malformed input is invalid, not an error.
func IsValidLuhn(number string) bool {
	if len(number) < MinLength || len(number) > MaxLength {
		return false
	}

	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}

	return sum%10 == 0
}

// Mask keeps the last four digits for logs.
func Mask(number string) string {
	if len(number) < 4 {
		return "****"
	}
	return "****" + number[len(number)-4:]
}
