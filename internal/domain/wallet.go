package domain

import "time"

// UserWallet is a stored-value balance in paise. Privileged wallets may
// go negative down to -CreditLimit; everyone else stops at zero.
type UserWallet struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Balance     int64     `json:"balance"`
	Privileged  bool      `json:"privileged"`
	CreditLimit int64     `json:"credit_limit"`
	CreatedAt   time.Time `json:"created_at"`
}

// Spendable is how much the wallet can still be debited.
func (w *UserWallet) Spendable() int64 {
	limit := int64(0)
	if w.Privileged {
		limit = w.CreditLimit
	}
	return w.Balance + limit
}

// WalletTransaction is one immutable ledger entry: credits positive,
// debits negative. PaymentID links settlement entries to their Payment;
// refund entries describe the original transaction they reverse.
type WalletTransaction struct {
	ID          string    `json:"id"`
	WalletID    string    `json:"wallet_id"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	PaymentID   string    `json:"payment_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
