package payments

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/canteenhq/settlement/internal/domain"
)

func TestProcessorSelector_Select(t *testing.T) {
	selector := NewProcessorSelector("http://gateway.local", http.DefaultClient, nil)

	merchant := &domain.Merchant{
		ID:        "merchant-1",
		KeyID:     "key_live_1",
		KeySecret: "secret_1",
	}

	t.Run("wallet method gets wallet adapter", func(t *testing.T) {
		p, err := selector.Select(domain.PaymentMethodWallet, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := p.(*WalletAdapter); !ok {
			t.Errorf("expected *WalletAdapter, got %T", p)
		}
	})

	t.Run("upi with real credentials gets gateway adapter", func(t *testing.T) {
		p, err := selector.Select(domain.PaymentMethodUPI, merchant)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := p.(*GatewayAdapter); !ok {
			t.Errorf("expected *GatewayAdapter, got %T", p)
		}
	})

	t.Run("upi without merchant fails", func(t *testing.T) {
		_, err := selector.Select(domain.PaymentMethodUPI, nil)
		if !errors.Is(err, domain.ErrMerchantNotFound) {
			t.Errorf("expected ErrMerchantNotFound, got %v", err)
		}
	})

	t.Run("placeholder credentials get mock adapter", func(t *testing.T) {
		placeholders := []*domain.Merchant{
			{KeyID: "", KeySecret: ""},
			{KeyID: "key_live_1", KeySecret: ""},
			{KeyID: "YOUR_KEY_ID", KeySecret: "YOUR_KEY_SECRET"},
			{KeyID: "rzp_YOUR_KEY", KeySecret: "secret_1"},
		}
		for _, m := range placeholders {
			p, err := selector.Select(domain.PaymentMethodUPI, m)
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", m.KeyID, err)
			}
			if _, ok := p.(*MockAdapter); !ok {
				t.Errorf("expected *MockAdapter for %q, got %T", m.KeyID, p)
			}
		}
	})

	t.Run("pay_later has no processor yet", func(t *testing.T) {
		_, err := selector.Select(domain.PaymentMethodPayLater, nil)
		if !errors.Is(err, domain.ErrUnsupportedPaymentMethod) {
			t.Errorf("expected ErrUnsupportedPaymentMethod, got %v", err)
		}
	})

	t.Run("unknown method fails", func(t *testing.T) {
		_, err := selector.Select(domain.PaymentMethod("crypto"), nil)
		if !errors.Is(err, domain.ErrUnsupportedPaymentMethod) {
			t.Errorf("expected ErrUnsupportedPaymentMethod, got %v", err)
		}
	})
}

func TestMockAdapter(t *testing.T) {
	adapter := NewMockAdapter()
	ctx := context.Background()

	t.Run("process always succeeds", func(t *testing.T) {
		result, err := adapter.ProcessPayment(ctx, ProcessRequest{OrderID: "order-1", Amount: 500})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(result.ProcessorOrderID, "mock_order_") {
			t.Errorf("unexpected processor order id: %s", result.ProcessorOrderID)
		}
		if result.Metadata["mock"] != true {
			t.Error("expected mock flag in metadata")
		}
	})

	t.Run("verify accepts any signature", func(t *testing.T) {
		result, err := adapter.VerifyPayment(ctx, VerificationPayload{
			ProcessorOrderID:   "mock_order_1",
			ProcessorPaymentID: "mock_pay_1",
			Signature:          "anything",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ProcessorPaymentID != "mock_pay_1" {
			t.Errorf("expected mock_pay_1, got %s", result.ProcessorPaymentID)
		}
	})

	t.Run("verify generates payment id when absent", func(t *testing.T) {
		result, err := adapter.VerifyPayment(ctx, VerificationPayload{ProcessorOrderID: "mock_order_1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(result.ProcessorPaymentID, "mock_pay_") {
			t.Errorf("unexpected payment id: %s", result.ProcessorPaymentID)
		}
	})

	t.Run("refund always succeeds", func(t *testing.T) {
		result, err := adapter.RefundPayment(ctx, "mock_pay_1", 500)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != "completed" {
			t.Errorf("expected completed, got %s", result.Status)
		}
	})
}
