package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/canteenhq/settlement/internal/domain"
	"github.com/canteenhq/settlement/internal/wallet"
)

// WalletAdapter settles orders against the internal wallet ledger.
// ProcessPayment only reserves a reference; the actual locked debit
// happens at verification so an abandoned checkout never moves funds.
type WalletAdapter struct {
	wallets *wallet.Repository
}

func NewWalletAdapter(wallets *wallet.Repository) *WalletAdapter {
	return &WalletAdapter{wallets: wallets}
}

func (a *WalletAdapter) ProcessPayment(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	w, err := a.wallets.CreateIfAbsent(ctx, req.UserID)
	if err != nil {
		return nil, &domain.ProcessingError{Method: domain.PaymentMethodWallet, Err: err}
	}
	if w.Spendable() < req.Amount {
		return nil, &domain.ProcessingError{Method: domain.PaymentMethodWallet, Err: errInsufficientBalance}
	}

	return &ProcessResult{
		ProcessorOrderID: newReference("wallet_txn_", 12),
		Metadata: map[string]any{
			"wallet_id": w.ID,
			"amount":    req.Amount,
		},
	}, nil
}

// VerifyPayment performs the debit. The ledger entry id doubles as the
// processor payment id, which is what a later refund looks up.
func (a *WalletAdapter) VerifyPayment(ctx context.Context, payload VerificationPayload) (*VerifyResult, error) {
	w, err := a.wallets.GetByUserID(ctx, payload.UserID)
	if err != nil {
		return nil, &domain.VerificationError{Method: domain.PaymentMethodWallet, Err: err}
	}
	if w == nil {
		return nil, &domain.VerificationError{Method: domain.PaymentMethodWallet, Err: domain.ErrWalletNotFound}
	}

	entry, err := a.wallets.Debit(ctx, w.ID, payload.Amount,
		fmt.Sprintf("Payment for order %s", payload.OrderID), payload.PaymentID)
	if err != nil {
		var procErr *domain.ProcessingError
		if errors.As(err, &procErr) {
			return nil, &domain.VerificationError{Method: domain.PaymentMethodWallet, Err: procErr.Err}
		}
		return nil, &domain.VerificationError{Method: domain.PaymentMethodWallet, Err: err}
	}

	return &VerifyResult{
		ProcessorPaymentID: entry.ID,
		RawResponse:        fmt.Sprintf(`{"status":"success","wallet_id":%q,"balance_deducted":%d}`, w.ID, payload.Amount),
	}, nil
}

// RefundPayment credits the original debit back and appends a positive
// ledger entry referencing it.
func (a *WalletAdapter) RefundPayment(ctx context.Context, processorPaymentID string, amount int64) (*RefundResult, error) {
	original, err := a.wallets.GetTransaction(ctx, processorPaymentID)
	if err != nil {
		return nil, &domain.RefundError{Method: domain.PaymentMethodWallet, Err: err}
	}
	if original == nil {
		return nil, &domain.RefundError{Method: domain.PaymentMethodWallet, Err: errTransactionNotFound}
	}

	entry, err := a.wallets.Credit(ctx, original.WalletID, amount,
		fmt.Sprintf("Refund for transaction %s", original.ID), original.PaymentID)
	if err != nil {
		return nil, &domain.RefundError{Method: domain.PaymentMethodWallet, Err: err}
	}

	return &RefundResult{
		RefundID:    entry.ID,
		Status:      "completed",
		RawResponse: fmt.Sprintf(`{"status":"success","balance_credited":%d}`, amount),
	}, nil
}
