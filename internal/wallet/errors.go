package wallet

import "errors"

var (
	errInsufficientBalance = errors.New("insufficient balance in wallet")
	errNonPositiveAmount   = errors.New("amount must be positive")
)
