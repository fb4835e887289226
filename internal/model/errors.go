package model

import (
	"errors"
	"fmt"
)

// Domain errors. Services wrap them with context, callers match with errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrLimitExceeded     = errors.New("limit exceeded")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCurrencyMismatch  = errors.New("currency mismatch")
	ErrDecryption        = errors.New("decryption failure")

	// ErrDuplicateCurrency is a LimitExceeded case: one account per currency.
	ErrDuplicateCurrency = fmt.Errorf("%w: account in this currency already exists", ErrLimitExceeded)

	// ErrDuplicateCardNumber is returned by the card store when a generated
	// number collides with an issued one; the issuer retries with a new number.
	ErrDuplicateCardNumber = errors.New("card number already issued")

	// ErrDataIntegrity marks broken structural invariants (card without account and the like).
	ErrDataIntegrity = errors.New("data integrity violation")
)
