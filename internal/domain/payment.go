package domain

import "time"

type PaymentMethod string

const (
	PaymentMethodUPI      PaymentMethod = "upi"
	PaymentMethodWallet   PaymentMethod = "wallet"
	PaymentMethodPayLater PaymentMethod = "pay_later"
	PaymentMethodCash     PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodUPI, PaymentMethodWallet, PaymentMethodPayLater, PaymentMethodCash:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// Payment records one attempt to settle an order. ProcessorOrderID is
// the reference handed out by the processor at initiation and is how
// verification callbacks find their way back to the row. MerchantID is
// empty for wallet payments.
type Payment struct {
	ID                 string        `json:"id"`
	OrderID            string        `json:"order_id"`
	UserID             string        `json:"user_id"`
	MerchantID         string        `json:"merchant_id,omitempty"`
	Amount             int64         `json:"amount"`
	Method             PaymentMethod `json:"method"`
	Status             PaymentStatus `json:"status"`
	ProcessorOrderID   string        `json:"processor_order_id"`
	ProcessorPaymentID string        `json:"processor_payment_id,omitempty"`
	ProcessorResponse  string        `json:"processor_response,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// Merchant maps a canteen to its external gateway credentials. Created
// once per canteen, read-only on the payment path.
type Merchant struct {
	ID        string    `json:"id"`
	CanteenID string    `json:"canteen_id"`
	Name      string    `json:"name"`
	KeyID     string    `json:"-"`
	KeySecret string    `json:"-"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
