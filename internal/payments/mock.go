package payments

import (
	"context"
	"errors"
)

var (
	errBadSignature        = errors.New("invalid payment signature")
	errInsufficientBalance = errors.New("insufficient balance in wallet")
	errTransactionNotFound = errors.New("original wallet transaction not found")
)

// MockAdapter stands in for the external gateway when a merchant has
// no real credentials configured. Every call succeeds with fake
// references so the checkout flow can be exercised end to end.
type MockAdapter struct{}

func NewMockAdapter() *MockAdapter { return &MockAdapter{} }

func (a *MockAdapter) ProcessPayment(_ context.Context, req ProcessRequest) (*ProcessResult, error) {
	return &ProcessResult{
		ProcessorOrderID: newReference("mock_order_", 10),
		Metadata: map[string]any{
			"amount":   req.Amount,
			"currency": "INR",
			"mock":     true,
		},
	}, nil
}

func (a *MockAdapter) VerifyPayment(_ context.Context, payload VerificationPayload) (*VerifyResult, error) {
	id := payload.ProcessorPaymentID
	if id == "" {
		id = newReference("mock_pay_", 8)
	}
	return &VerifyResult{ProcessorPaymentID: id, RawResponse: `{"status":"captured"}`}, nil
}

func (a *MockAdapter) RefundPayment(_ context.Context, _ string, _ int64) (*RefundResult, error) {
	return &RefundResult{RefundID: newReference("mock_refund_", 8), Status: "completed"}, nil
}
