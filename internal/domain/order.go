package domain

import (
	"encoding/json"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusScheduled OrderStatus = "scheduled"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type OrderPaymentStatus string

const (
	OrderPaymentPending  OrderPaymentStatus = "pending"
	OrderPaymentPaid     OrderPaymentStatus = "paid"
	OrderPaymentRefunded OrderPaymentStatus = "refunded"
)

// CancellationWindow is how long after order time a customer may still
// cancel an unpaid order.
const CancellationWindow = 5 * time.Minute

// TaxRatePercent is applied to the subtotal once, at order creation.
const TaxRatePercent = 5

// OrderItem carries the name and price snapshotted at order time, so
// later catalog edits cannot change what a historical order cost.
type OrderItem struct {
	ID             string          `json:"id"`
	OrderID        string          `json:"order_id"`
	MenuItemID     string          `json:"menu_item_id"`
	Quantity       int             `json:"quantity"`
	Customizations json.RawMessage `json:"customizations,omitempty"`
	SnapshotName   string          `json:"snapshot_name"`
	SnapshotPrice  int64           `json:"snapshot_price"`
}

// Order amounts are in paise. TotalAmount is always Subtotal + Tax.
type Order struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id"`
	CanteenID          string             `json:"canteen_id"`
	Items              []OrderItem        `json:"items"`
	Subtotal           int64              `json:"subtotal"`
	Tax                int64              `json:"tax"`
	TotalAmount        int64              `json:"total_amount"`
	Status             OrderStatus        `json:"status"`
	PaymentMethod      PaymentMethod      `json:"payment_method"`
	PaymentStatus      OrderPaymentStatus `json:"payment_status"`
	IsPreOrder         bool               `json:"is_pre_order"`
	OrderTime          time.Time          `json:"order_time"`
	ConfirmedTime      *time.Time         `json:"confirmed_time,omitempty"`
	PreparingTime      *time.Time         `json:"preparing_time,omitempty"`
	ReadyTime          *time.Time         `json:"ready_time,omitempty"`
	DeliveredTime      *time.Time         `json:"delivered_time,omitempty"`
	CancelledTime      *time.Time         `json:"cancelled_time,omitempty"`
	CancellationReason string             `json:"cancellation_reason,omitempty"`
}

// Tax computes the order tax in paise, rounding half up.
func Tax(subtotal int64) int64 {
	return (subtotal*TaxRatePercent + 50) / 100
}

// Terminal reports whether no further status transitions are possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransition enforces the vendor-facing progression
// pending/scheduled -> confirmed -> preparing -> ready -> delivered,
// with cancellation allowed from any non-terminal state. Reaching
// confirmed is reserved for payment verification and is never accepted
// as a direct transition.
func CanTransition(from, to OrderStatus) bool {
	if from.Terminal() {
		return false
	}
	switch to {
	case OrderStatusPreparing:
		return from == OrderStatusConfirmed
	case OrderStatusReady:
		return from == OrderStatusPreparing
	case OrderStatusDelivered:
		return from == OrderStatusReady
	case OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Cancellable reports whether the order's owner may still cancel it.
// Paid orders must go through refund instead.
func (o *Order) Cancellable(now time.Time) error {
	if o.Status.Terminal() || o.Status == OrderStatusConfirmed {
		return &InvalidStateError{Op: "cancel", Status: string(o.Status)}
	}
	if o.PaymentStatus == OrderPaymentPaid {
		return &InvalidStateError{Op: "cancel", Status: string(o.Status), Reason: "paid orders must be refunded"}
	}
	if now.Sub(o.OrderTime) > CancellationWindow {
		return &InvalidStateError{Op: "cancel", Status: string(o.Status), Reason: "cancellation window elapsed"}
	}
	return nil
}

// MenuItem is the slice of the catalog this service reads for
// snapshotting and stock reservation. A nil StockCount means the item
// is not stock-tracked.
type MenuItem struct {
	ID         string `json:"id"`
	CanteenID  string `json:"canteen_id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	StockCount *int   `json:"stock_count,omitempty"`
}
