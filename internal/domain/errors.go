package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound            = errors.New("order not found")
	ErrItemNotFound             = errors.New("menu item not found")
	ErrPaymentNotFound          = errors.New("payment not found")
	ErrMerchantNotFound         = errors.New("merchant not found")
	ErrWalletNotFound           = errors.New("wallet not found")
	ErrPaymentAlreadyCompleted  = errors.New("order already has a completed payment")
	ErrUnsupportedPaymentMethod = errors.New("unsupported payment method")
)

// InsufficientStockError names the item that could not be reserved. The
// whole order-creation transaction rolls back when it is returned.
type InsufficientStockError struct {
	ItemID    string
	Name      string
	Stock     int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (%s): have %d, want %d", e.Name, e.ItemID, e.Stock, e.Requested)
}

// InvalidStateError rejects an operation the order's current status
// does not allow.
type InvalidStateError struct {
	Op     string
	Status string
	Reason string
}

func (e *InvalidStateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot %s order in status %q: %s", e.Op, e.Status, e.Reason)
	}
	return fmt.Sprintf("cannot %s order in status %q", e.Op, e.Status)
}

// ProcessingError wraps a failure to initiate a payment with a
// processor, including a wallet with insufficient balance.
type ProcessingError struct {
	Method PaymentMethod
	Err    error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s payment processing failed: %v", e.Method, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// VerificationError wraps a failed signature check or a payment the
// processor did not capture.
type VerificationError struct {
	Method PaymentMethod
	Err    error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s payment verification failed: %v", e.Method, e.Err)
}

func (e *VerificationError) Unwrap() error { return e.Err }

// RefundError wraps a failed refund with a processor.
type RefundError struct {
	Method PaymentMethod
	Err    error
}

func (e *RefundError) Error() string {
	return fmt.Sprintf("%s refund failed: %v", e.Method, e.Err)
}

func (e *RefundError) Unwrap() error { return e.Err }
