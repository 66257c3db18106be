package orders

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/canteenhq/settlement/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const orderColumns = `
	id, user_id, canteen_id, subtotal, tax, total_amount, status,
	payment_method, payment_status, is_pre_order, order_time,
	confirmed_time, preparing_time, ready_time, delivered_time,
	cancelled_time, cancellation_reason
`

// Insert persists the order header and its items inside the caller's
// transaction. Item ids are assigned here.
func (r *Repository) Insert(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, user_id, canteen_id, subtotal, tax, total_amount, status,
			payment_method, payment_status, is_pre_order, order_time
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, order.ID, order.UserID, order.CanteenID, order.Subtotal, order.Tax,
		order.TotalAmount, order.Status, order.PaymentMethod, order.PaymentStatus,
		order.IsPreOrder, order.OrderTime)
	if err != nil {
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.ID = uuid.New().String()
		item.OrderID = order.ID
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, menu_item_id, quantity, customizations, snapshot_name, snapshot_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, item.ID, item.OrderID, item.MenuItemID, item.Quantity,
			nullableJSON(item.Customizations), item.SnapshotName, item.SnapshotPrice); err != nil {
			return err
		}
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1
	`, id))
	if err != nil || order == nil {
		return nil, err
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetForUpdate locks the order row for a status change in the caller's
// transaction. Items are loaded without their own locks; only the
// header row serializes concurrent transitions.
func (r *Repository) GetForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Order, error) {
	order, err := scanOrder(tx.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE
	`, id))
	if err != nil || order == nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, order_id, menu_item_id, quantity, customizations, snapshot_name, snapshot_price
		FROM order_items
		WHERE order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	order.Items, err = collectItems(rows)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY order_time DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, menu_item_id, quantity, customizations, snapshot_name, snapshot_price
		FROM order_items
		WHERE order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	items, err := collectItems(itemRows)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		order := orderMap[item.OrderID]
		order.Items = append(order.Items, item)
	}

	result := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		result = append(result, *orderMap[id])
	}
	return result, nil
}

// MarkCancelled stamps the cancellation inside the caller's
// transaction. State checks belong to the service.
func (r *Repository) MarkCancelled(ctx context.Context, tx *sql.Tx, id, reason string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $2, cancelled_time = $3, cancellation_reason = $4 WHERE id = $1
	`, id, domain.OrderStatusCancelled, at, reason)
	return err
}

// ConfirmPaid is the only path to status "confirmed". It refuses
// orders already in a terminal or confirmed state so a duplicate
// verification cannot re-stamp the order.
func (r *Repository) ConfirmPaid(ctx context.Context, tx *sql.Tx, id string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, payment_status = $3, confirmed_time = $4
		WHERE id = $1 AND status NOT IN ($5, $6, $2)
	`, id, domain.OrderStatusConfirmed, domain.OrderPaymentPaid, at,
		domain.OrderStatusDelivered, domain.OrderStatusCancelled)
	return err
}

// MarkRefunded flips the order's payment status after a successful
// refund.
func (r *Repository) MarkRefunded(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE orders SET payment_status = $2 WHERE id = $1
	`, id, domain.OrderPaymentRefunded)
	return err
}

// UpdateStatus applies a vendor-side progression step and stamps the
// matching lifecycle timestamp.
func (r *Repository) UpdateStatus(ctx context.Context, tx *sql.Tx, id string, status domain.OrderStatus, at time.Time) error {
	column := ""
	switch status {
	case domain.OrderStatusPreparing:
		column = "preparing_time"
	case domain.OrderStatusReady:
		column = "ready_time"
	case domain.OrderStatusDelivered:
		column = "delivered_time"
	}

	if column == "" {
		_, err := tx.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
		return err
	}
	_, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $2, `+column+` = $3 WHERE id = $1
	`, id, status, at)
	return err
}

func (r *Repository) loadItems(ctx context.Context, order *domain.Order) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, menu_item_id, quantity, customizations, snapshot_name, snapshot_price
		FROM order_items
		WHERE order_id = $1
	`, order.ID)
	if err != nil {
		return err
	}
	order.Items, err = collectItems(rows)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var (
		reason sql.NullString
	)
	err := row.Scan(
		&order.ID, &order.UserID, &order.CanteenID, &order.Subtotal, &order.Tax,
		&order.TotalAmount, &order.Status, &order.PaymentMethod, &order.PaymentStatus,
		&order.IsPreOrder, &order.OrderTime, &order.ConfirmedTime, &order.PreparingTime,
		&order.ReadyTime, &order.DeliveredTime, &order.CancelledTime, &reason,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	order.CancellationReason = reason.String
	return order, nil
}

func collectItems(rows *sql.Rows) ([]domain.OrderItem, error) {
	defer func() { _ = rows.Close() }()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		var customizations []byte
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Quantity,
			&customizations, &item.SnapshotName, &item.SnapshotPrice); err != nil {
			return nil, err
		}
		item.Customizations = customizations
		items = append(items, item)
	}
	return items, rows.Err()
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
