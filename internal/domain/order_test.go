package domain

import (
	"errors"
	"testing"
	"time"
)

func TestTax(t *testing.T) {
	tests := []struct {
		name     string
		subtotal int64
		want     int64
	}{
		{"zero subtotal", 0, 0},
		{"exact percent", 12000, 600},
		{"rounds half up", 1010, 51},
		{"rounds down below half", 1001, 50},
		{"single paisa", 1, 0},
		{"ten paise", 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tax(tt.subtotal); got != tt.want {
				t.Errorf("Tax(%d) = %d, want %d", tt.subtotal, got, tt.want)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"confirmed to preparing", OrderStatusConfirmed, OrderStatusPreparing, true},
		{"preparing to ready", OrderStatusPreparing, OrderStatusReady, true},
		{"ready to delivered", OrderStatusReady, OrderStatusDelivered, true},
		{"pending to cancelled", OrderStatusPending, OrderStatusCancelled, true},
		{"scheduled to cancelled", OrderStatusScheduled, OrderStatusCancelled, true},
		{"pending to preparing skips confirmation", OrderStatusPending, OrderStatusPreparing, false},
		{"confirmed to ready skips preparing", OrderStatusConfirmed, OrderStatusReady, false},
		{"delivered is terminal", OrderStatusDelivered, OrderStatusCancelled, false},
		{"cancelled is terminal", OrderStatusCancelled, OrderStatusPreparing, false},
		{"confirmed never a direct target", OrderStatusPending, OrderStatusConfirmed, false},
		{"confirmed not even from scheduled", OrderStatusScheduled, OrderStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestOrder_Cancellable(t *testing.T) {
	now := time.Now()

	t.Run("within window", func(t *testing.T) {
		o := &Order{Status: OrderStatusPending, PaymentStatus: OrderPaymentPending, OrderTime: now.Add(-2 * time.Minute)}
		if err := o.Cancellable(now); err != nil {
			t.Errorf("expected cancellable, got %v", err)
		}
	})

	t.Run("window elapsed", func(t *testing.T) {
		o := &Order{Status: OrderStatusPending, PaymentStatus: OrderPaymentPending, OrderTime: now.Add(-6 * time.Minute)}
		err := o.Cancellable(now)
		var stateErr *InvalidStateError
		if !errors.As(err, &stateErr) {
			t.Fatalf("expected InvalidStateError, got %v", err)
		}
		if stateErr.Reason != "cancellation window elapsed" {
			t.Errorf("unexpected reason: %s", stateErr.Reason)
		}
	})

	t.Run("exactly at window boundary", func(t *testing.T) {
		o := &Order{Status: OrderStatusPending, PaymentStatus: OrderPaymentPending, OrderTime: now.Add(-CancellationWindow)}
		if err := o.Cancellable(now); err != nil {
			t.Errorf("expected cancellable at boundary, got %v", err)
		}
	})

	t.Run("paid orders cannot be cancelled", func(t *testing.T) {
		o := &Order{Status: OrderStatusPending, PaymentStatus: OrderPaymentPaid, OrderTime: now}
		err := o.Cancellable(now)
		var stateErr *InvalidStateError
		if !errors.As(err, &stateErr) {
			t.Fatalf("expected InvalidStateError, got %v", err)
		}
		if stateErr.Reason != "paid orders must be refunded" {
			t.Errorf("unexpected reason: %s", stateErr.Reason)
		}
	})

	t.Run("confirmed orders cannot be cancelled", func(t *testing.T) {
		o := &Order{Status: OrderStatusConfirmed, PaymentStatus: OrderPaymentPending, OrderTime: now}
		if err := o.Cancellable(now); err == nil {
			t.Error("expected error for confirmed order")
		}
	})

	t.Run("terminal orders cannot be cancelled", func(t *testing.T) {
		for _, status := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled} {
			o := &Order{Status: status, PaymentStatus: OrderPaymentPending, OrderTime: now}
			if err := o.Cancellable(now); err == nil {
				t.Errorf("expected error for %s order", status)
			}
		}
	})
}
