package domain

import "time"

// OrderConfirmedEvent is published after a payment settles and its
// order is confirmed. The worker consumes it to clear the customer's
// cart and send a receipt; neither side effect can roll settlement
// back.
type OrderConfirmedEvent struct {
	OrderID     string        `json:"order_id"`
	UserID      string        `json:"user_id"`
	CanteenID   string        `json:"canteen_id"`
	PaymentID   string        `json:"payment_id"`
	Method      PaymentMethod `json:"method"`
	TotalAmount int64         `json:"total_amount"`
	Timestamp   time.Time     `json:"timestamp"`
}
