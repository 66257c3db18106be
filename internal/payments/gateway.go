package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/canteenhq/settlement/internal/domain"
)

// GatewayAdapter drives a remote UPI-style payment gateway over HTTP.
// It is always called outside any held database lock; the injected
// client carries a bounded timeout so a hung gateway fails the attempt
// instead of stalling it.
type GatewayAdapter struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

func NewGatewayAdapter(baseURL, keyID, keySecret string, client *http.Client) *GatewayAdapter {
	return &GatewayAdapter{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		client:    client,
	}
}

type gatewayOrder struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type gatewayPayment struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
}

// ProcessPayment creates a gateway order for the amount in minor
// currency units, tagged with the local order and user so callbacks
// can be reconciled.
func (a *GatewayAdapter) ProcessPayment(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	body := gatewayOrder{
		Amount:   req.Amount,
		Currency: "INR",
		Receipt:  newReference("order_", 10),
		Notes: map[string]string{
			"order_id": req.OrderID,
			"user_id":  req.UserID,
		},
	}

	var created gatewayOrder
	if err := a.post(ctx, "/v1/orders", body, &created); err != nil {
		return nil, &domain.ProcessingError{Method: domain.PaymentMethodUPI, Err: err}
	}

	return &ProcessResult{
		ProcessorOrderID: created.ID,
		Metadata: map[string]any{
			"amount":   created.Amount,
			"currency": created.Currency,
			"key_id":   a.keyID,
		},
	}, nil
}

// VerifyPayment first checks the callback signature against the key
// secret, then fetches the payment and requires its status to be
// "captured". A valid signature over a non-captured payment is still a
// verification failure.
func (a *GatewayAdapter) VerifyPayment(ctx context.Context, payload VerificationPayload) (*VerifyResult, error) {
	if !a.signatureValid(payload) {
		return nil, &domain.VerificationError{Method: domain.PaymentMethodUPI, Err: errBadSignature}
	}

	var payment gatewayPayment
	raw, err := a.get(ctx, "/v1/payments/"+payload.ProcessorPaymentID, &payment)
	if err != nil {
		return nil, &domain.VerificationError{Method: domain.PaymentMethodUPI, Err: err}
	}

	if payment.Status != "captured" {
		return nil, &domain.VerificationError{
			Method: domain.PaymentMethodUPI,
			Err:    fmt.Errorf("payment not captured, status %q", payment.Status),
		}
	}

	return &VerifyResult{ProcessorPaymentID: payment.ID, RawResponse: raw}, nil
}

func (a *GatewayAdapter) RefundPayment(ctx context.Context, processorPaymentID string, amount int64) (*RefundResult, error) {
	body := map[string]int64{"amount": amount}
	var refund struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := a.post(ctx, "/v1/payments/"+processorPaymentID+"/refund", body, &refund); err != nil {
		return nil, &domain.RefundError{Method: domain.PaymentMethodUPI, Err: err}
	}
	return &RefundResult{RefundID: refund.ID, Status: refund.Status}, nil
}

// signatureValid recomputes the HMAC-SHA256 the gateway signs its
// callbacks with: hex(hmac(keySecret, "<order_id>|<payment_id>")).
func (a *GatewayAdapter) signatureValid(payload VerificationPayload) bool {
	mac := hmac.New(sha256.New, []byte(a.keySecret))
	mac.Write([]byte(payload.ProcessorOrderID + "|" + payload.ProcessorPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(payload.Signature))
}

func (a *GatewayAdapter) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(a.keyID, a.keySecret)

	_, err = a.do(req, out)
	return err
}

func (a *GatewayAdapter) get(ctx context.Context, path string, out any) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(a.keyID, a.keySecret)
	return a.do(req, out)
}

func (a *GatewayAdapter) do(req *http.Request, out any) (string, error) {
	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return string(raw), fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return string(raw), err
		}
	}
	return string(raw), nil
}
