package payments

import (
	"context"
	"database/sql"
	"time"

	"github.com/canteenhq/settlement/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const paymentColumns = `
	id, order_id, user_id, COALESCE(merchant_id, ''), amount, method, status,
	processor_order_id, COALESCE(processor_payment_id, ''),
	COALESCE(processor_response, ''), created_at, updated_at
`

func (r *Repository) Insert(ctx context.Context, p *domain.Payment) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO payments (id, order_id, user_id, merchant_id, amount, method, status, processor_order_id)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, p.ID, p.OrderID, p.UserID, p.MerchantID, p.Amount, p.Method, p.Status, p.ProcessorOrderID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *Repository) GetByProcessorOrderID(ctx context.Context, processorOrderID string) (*domain.Payment, error) {
	return r.get(ctx, `WHERE processor_order_id = $1`, processorOrderID)
}

// GetCompletedByOrderID finds the settlement for an order, if any. The
// unique partial index on (order_id) WHERE status = 'completed' makes
// at most one such row possible.
func (r *Repository) GetCompletedByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	return r.get(ctx, `WHERE order_id = $1 AND status = 'completed'`, orderID)
}

func (r *Repository) get(ctx context.Context, where string, arg any) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments `+where, arg).Scan(
		&p.ID, &p.OrderID, &p.UserID, &p.MerchantID, &p.Amount, &p.Method, &p.Status,
		&p.ProcessorOrderID, &p.ProcessorPaymentID, &p.ProcessorResponse, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var list []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(
			&p.ID, &p.OrderID, &p.UserID, &p.MerchantID, &p.Amount, &p.Method, &p.Status,
			&p.ProcessorOrderID, &p.ProcessorPaymentID, &p.ProcessorResponse, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Claim conditionally moves a payment into processing so exactly one
// verifier proceeds to the adapter. A false return means another call
// holds, or already finished, the verification.
func (r *Repository) Claim(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status IN ($3, $4)
	`, id, domain.PaymentStatusProcessing, domain.PaymentStatusPending, domain.PaymentStatusFailed)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Release puts a claimed payment back to pending after a transient
// failure, so a later callback can try again.
func (r *Repository) Release(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, id, domain.PaymentStatusPending, domain.PaymentStatusProcessing)
	return err
}

// MarkCompleted runs inside the settlement transaction that also
// confirms the order, so the payment and order flip together.
func (r *Repository) MarkCompleted(ctx context.Context, tx *sql.Tx, id, processorPaymentID, response string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET status = $2, processor_payment_id = $3, processor_response = $4, updated_at = $5
		WHERE id = $1
	`, id, domain.PaymentStatusCompleted, processorPaymentID, response, at)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, id, response string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = $2, processor_response = $3, updated_at = NOW() WHERE id = $1
	`, id, domain.PaymentStatusFailed, response)
	return err
}

func (r *Repository) MarkRefunded(ctx context.Context, tx *sql.Tx, id, response string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE payments SET status = $2, processor_response = $3, updated_at = $4 WHERE id = $1
	`, id, domain.PaymentStatusRefunded, response, at)
	return err
}
