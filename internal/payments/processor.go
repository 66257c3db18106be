package payments

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// ProcessRequest asks a processor to open a settlement attempt for an
// order total.
type ProcessRequest struct {
	OrderID string
	UserID  string
	Amount  int64
}

// ProcessResult is the processor-side reference the client continues
// the checkout with. No funds have moved yet.
type ProcessResult struct {
	ProcessorOrderID string         `json:"processor_order_id"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// VerificationPayload is what a checkout callback carries. The service
// fills in the payment context before handing it to the adapter.
type VerificationPayload struct {
	ProcessorOrderID   string `json:"processor_order_id"`
	ProcessorPaymentID string `json:"processor_payment_id"`
	Signature          string `json:"signature"`

	// Attached by the orchestration service from the Payment row.
	PaymentID string `json:"-"`
	OrderID   string `json:"-"`
	UserID    string `json:"-"`
	Amount    int64  `json:"-"`
}

type VerifyResult struct {
	ProcessorPaymentID string `json:"processor_payment_id"`
	RawResponse        string `json:"raw_response"`
}

type RefundResult struct {
	RefundID    string `json:"refund_id"`
	Status      string `json:"status"`
	RawResponse string `json:"raw_response,omitempty"`
}

// Processor is the payment-method abstraction: an external gateway,
// the internal wallet ledger, or a mock stand-in. Implementations fail
// with domain.ProcessingError, domain.VerificationError and
// domain.RefundError respectively.
type Processor interface {
	ProcessPayment(ctx context.Context, req ProcessRequest) (*ProcessResult, error)
	VerifyPayment(ctx context.Context, payload VerificationPayload) (*VerifyResult, error)
	RefundPayment(ctx context.Context, processorPaymentID string, amount int64) (*RefundResult, error)
}

func newReference(prefix string, n int) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + hex[:n]
}
