package wallet

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/canteenhq/settlement/internal/domain"
)

// Repository is the wallet ledger. Balance changes take an exclusive
// lock on the wallet row so two concurrent debits can never both read
// the pre-debit balance, and every change appends an immutable
// transaction row. Ledger rows are never updated or deleted.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByUserID(ctx context.Context, userID string) (*domain.UserWallet, error) {
	w := &domain.UserWallet{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, balance, privileged, credit_limit, created_at
		FROM user_wallets
		WHERE user_id = $1
	`, userID).Scan(&w.ID, &w.UserID, &w.Balance, &w.Privileged, &w.CreditLimit, &w.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return w, nil
}

// CreateIfAbsent lazily provisions an empty wallet the first time a
// user pays with one.
func (r *Repository) CreateIfAbsent(ctx context.Context, userID string) (*domain.UserWallet, error) {
	if w, err := r.GetByUserID(ctx, userID); err != nil || w != nil {
		return w, err
	}

	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_wallets (id, user_id, balance, privileged, credit_limit)
		VALUES ($1, $2, 0, FALSE, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, id, userID)
	if err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, userID)
}

// Debit atomically checks the spendable balance and applies the
// charge. The wallet row is locked for the whole read-check-write
// sequence; on a failed check nothing is written and the balance is
// untouched.
func (r *Repository) Debit(ctx context.Context, walletID string, amount int64, description, paymentID string) (*domain.WalletTransaction, error) {
	if amount <= 0 {
		return nil, &domain.ProcessingError{Method: domain.PaymentMethodWallet, Err: errNonPositiveAmount}
	}
	return r.apply(ctx, walletID, -amount, description, paymentID, true)
}

// Credit adds funds back, used by refunds. Same locking discipline as
// Debit but no balance check.
func (r *Repository) Credit(ctx context.Context, walletID string, amount int64, description, paymentID string) (*domain.WalletTransaction, error) {
	if amount <= 0 {
		return nil, &domain.RefundError{Method: domain.PaymentMethodWallet, Err: errNonPositiveAmount}
	}
	return r.apply(ctx, walletID, amount, description, paymentID, false)
}

func (r *Repository) apply(ctx context.Context, walletID string, change int64, description, paymentID string, checkBalance bool) (*domain.WalletTransaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	w := &domain.UserWallet{}
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, balance, privileged, credit_limit
		FROM user_wallets
		WHERE id = $1
		FOR UPDATE
	`, walletID).Scan(&w.ID, &w.UserID, &w.Balance, &w.Privileged, &w.CreditLimit)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}

	if checkBalance && w.Spendable()+change < 0 {
		return nil, &domain.ProcessingError{Method: domain.PaymentMethodWallet, Err: errInsufficientBalance}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE user_wallets SET balance = balance + $2 WHERE id = $1
	`, walletID, change); err != nil {
		return nil, err
	}

	entry := &domain.WalletTransaction{
		ID:          uuid.New().String(),
		WalletID:    walletID,
		Amount:      change,
		Description: description,
		PaymentID:   paymentID,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO wallet_transactions (id, wallet_id, amount, description, payment_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING created_at
	`, entry.ID, entry.WalletID, entry.Amount, entry.Description, entry.PaymentID).Scan(&entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (*domain.WalletTransaction, error) {
	entry := &domain.WalletTransaction{}
	var paymentID sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, wallet_id, amount, description, payment_id, created_at
		FROM wallet_transactions
		WHERE id = $1
	`, id).Scan(&entry.ID, &entry.WalletID, &entry.Amount, &entry.Description, &paymentID, &entry.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	entry.PaymentID = paymentID.String
	return entry, nil
}

func (r *Repository) ListTransactions(ctx context.Context, walletID string, limit int) ([]domain.WalletTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, wallet_id, amount, description, payment_id, created_at
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, walletID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []domain.WalletTransaction
	for rows.Next() {
		var entry domain.WalletTransaction
		var paymentID sql.NullString
		if err := rows.Scan(&entry.ID, &entry.WalletID, &entry.Amount, &entry.Description, &paymentID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.PaymentID = paymentID.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
