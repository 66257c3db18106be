package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/canteenhq/settlement/internal/domain"
)

func TestService_CreateOrderValidation(t *testing.T) {
	// Validation runs before any transaction is opened, so no database
	// is needed here.
	service := NewService(nil, nil, nil)
	ctx := context.Background()

	t.Run("rejects empty item list", func(t *testing.T) {
		_, err := service.CreateOrder(ctx, CreateParams{
			UserID:        "user-1",
			CanteenID:     "canteen-1",
			PaymentMethod: domain.PaymentMethodCash,
		})
		if err == nil {
			t.Fatal("expected error for empty item list")
		}
	})

	t.Run("rejects missing payment method", func(t *testing.T) {
		_, err := service.CreateOrder(ctx, CreateParams{
			UserID:    "user-1",
			CanteenID: "canteen-1",
			Items:     []CreateItem{{MenuItemID: "item-1", Quantity: 1}},
		})
		if !errors.Is(err, domain.ErrUnsupportedPaymentMethod) {
			t.Fatalf("expected ErrUnsupportedPaymentMethod, got %v", err)
		}
	})

	t.Run("rejects unknown payment method", func(t *testing.T) {
		_, err := service.CreateOrder(ctx, CreateParams{
			UserID:        "user-1",
			CanteenID:     "canteen-1",
			Items:         []CreateItem{{MenuItemID: "item-1", Quantity: 1}},
			PaymentMethod: domain.PaymentMethod("crypto"),
		})
		if !errors.Is(err, domain.ErrUnsupportedPaymentMethod) {
			t.Fatalf("expected ErrUnsupportedPaymentMethod, got %v", err)
		}
	})
}
