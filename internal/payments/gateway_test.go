package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/canteenhq/settlement/internal/domain"
)

func signPayload(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestGatewayAdapter_ProcessPayment(t *testing.T) {
	t.Run("creates gateway order", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/orders" {
				t.Errorf("expected /v1/orders, got %s", r.URL.Path)
			}
			user, pass, ok := r.BasicAuth()
			if !ok || user != "key_live_1" || pass != "secret_1" {
				t.Errorf("unexpected basic auth: %s %s", user, pass)
			}

			var body gatewayOrder
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Amount != 12600 {
				t.Errorf("expected amount 12600, got %d", body.Amount)
			}
			if body.Currency != "INR" {
				t.Errorf("expected INR, got %s", body.Currency)
			}
			if !strings.HasPrefix(body.Receipt, "order_") {
				t.Errorf("unexpected receipt: %s", body.Receipt)
			}
			if body.Notes["order_id"] != "order-1" || body.Notes["user_id"] != "user-1" {
				t.Errorf("unexpected notes: %v", body.Notes)
			}

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"gw_order_abc","amount":12600,"currency":"INR"}`))
		}))
		defer server.Close()

		adapter := NewGatewayAdapter(server.URL, "key_live_1", "secret_1", server.Client())
		result, err := adapter.ProcessPayment(context.Background(), ProcessRequest{
			OrderID: "order-1",
			UserID:  "user-1",
			Amount:  12600,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ProcessorOrderID != "gw_order_abc" {
			t.Errorf("expected gw_order_abc, got %s", result.ProcessorOrderID)
		}
		if result.Metadata["key_id"] != "key_live_1" {
			t.Errorf("expected key_id in metadata, got %v", result.Metadata["key_id"])
		}
	})

	t.Run("wraps gateway errors as ProcessingError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"upstream down"}`))
		}))
		defer server.Close()

		adapter := NewGatewayAdapter(server.URL, "k", "s", server.Client())
		_, err := adapter.ProcessPayment(context.Background(), ProcessRequest{OrderID: "order-1", Amount: 100})

		var procErr *domain.ProcessingError
		if !errors.As(err, &procErr) {
			t.Fatalf("expected ProcessingError, got %v", err)
		}
		if procErr.Method != domain.PaymentMethodUPI {
			t.Errorf("expected upi method, got %s", procErr.Method)
		}
	})
}

func TestGatewayAdapter_VerifyPayment(t *testing.T) {
	const secret = "secret_1"

	t.Run("valid signature and captured payment", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/payments/gw_pay_1" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			_, _ = w.Write([]byte(`{"id":"gw_pay_1","order_id":"gw_order_1","amount":12600,"status":"captured"}`))
		}))
		defer server.Close()

		adapter := NewGatewayAdapter(server.URL, "k", secret, server.Client())
		result, err := adapter.VerifyPayment(context.Background(), VerificationPayload{
			ProcessorOrderID:   "gw_order_1",
			ProcessorPaymentID: "gw_pay_1",
			Signature:          signPayload(secret, "gw_order_1", "gw_pay_1"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ProcessorPaymentID != "gw_pay_1" {
			t.Errorf("expected gw_pay_1, got %s", result.ProcessorPaymentID)
		}
		if result.RawResponse == "" {
			t.Error("expected raw response to be captured")
		}
	})

	t.Run("rejects bad signature without calling gateway", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		adapter := NewGatewayAdapter(server.URL, "k", secret, server.Client())
		_, err := adapter.VerifyPayment(context.Background(), VerificationPayload{
			ProcessorOrderID:   "gw_order_1",
			ProcessorPaymentID: "gw_pay_1",
			Signature:          "deadbeef",
		})

		var verErr *domain.VerificationError
		if !errors.As(err, &verErr) {
			t.Fatalf("expected VerificationError, got %v", err)
		}
		if called {
			t.Error("gateway should not be called when signature is invalid")
		}
	})

	t.Run("rejects signature computed with wrong secret", func(t *testing.T) {
		adapter := NewGatewayAdapter("http://unused", "k", secret, http.DefaultClient)
		_, err := adapter.VerifyPayment(context.Background(), VerificationPayload{
			ProcessorOrderID:   "gw_order_1",
			ProcessorPaymentID: "gw_pay_1",
			Signature:          signPayload("other_secret", "gw_order_1", "gw_pay_1"),
		})
		if err == nil {
			t.Fatal("expected error for signature under wrong secret")
		}
	})

	t.Run("valid signature but payment not captured", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"gw_pay_1","status":"authorized"}`))
		}))
		defer server.Close()

		adapter := NewGatewayAdapter(server.URL, "k", secret, server.Client())
		_, err := adapter.VerifyPayment(context.Background(), VerificationPayload{
			ProcessorOrderID:   "gw_order_1",
			ProcessorPaymentID: "gw_pay_1",
			Signature:          signPayload(secret, "gw_order_1", "gw_pay_1"),
		})

		var verErr *domain.VerificationError
		if !errors.As(err, &verErr) {
			t.Fatalf("expected VerificationError, got %v", err)
		}
		if !strings.Contains(verErr.Error(), "not captured") {
			t.Errorf("unexpected error: %v", verErr)
		}
	})
}

func TestGatewayAdapter_RefundPayment(t *testing.T) {
	t.Run("posts refund with amount", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/payments/gw_pay_1/refund" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			var body map[string]int64
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body["amount"] != 12600 {
				t.Errorf("expected amount 12600, got %d", body["amount"])
			}
			_, _ = w.Write([]byte(`{"id":"gw_rfnd_1","status":"processed"}`))
		}))
		defer server.Close()

		adapter := NewGatewayAdapter(server.URL, "k", "s", server.Client())
		result, err := adapter.RefundPayment(context.Background(), "gw_pay_1", 12600)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.RefundID != "gw_rfnd_1" || result.Status != "processed" {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("wraps failure as RefundError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"already refunded"}`))
		}))
		defer server.Close()

		adapter := NewGatewayAdapter(server.URL, "k", "s", server.Client())
		_, err := adapter.RefundPayment(context.Background(), "gw_pay_1", 100)

		var refundErr *domain.RefundError
		if !errors.As(err, &refundErr) {
			t.Fatalf("expected RefundError, got %v", err)
		}
	})
}
