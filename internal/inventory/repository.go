package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/lib/pq"

	"github.com/canteenhq/settlement/internal/domain"
)

// Repository is the stock side of the catalog. Reservation runs inside
// the caller's order-creation transaction so that a failed reservation
// rolls the whole order back.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ItemRequest is one (menu item, quantity) pair to reserve.
type ItemRequest struct {
	MenuItemID string
	Quantity   int
}

// Reserve locks every requested menu item row, verifies stock for all
// of them, and only then decrements. Items without a stock count are
// unlimited and skip the check. Rows are locked in sorted id order so
// two overlapping reservations cannot deadlock. Returns the locked
// items keyed by id for the caller to snapshot name and price from.
func (r *Repository) Reserve(ctx context.Context, tx *sql.Tx, reqs []ItemRequest) (map[string]domain.MenuItem, error) {
	quantities := make(map[string]int, len(reqs))
	ids := make([]string, 0, len(reqs))
	for _, req := range reqs {
		if req.Quantity <= 0 {
			return nil, fmt.Errorf("quantity for item %s must be positive", req.MenuItemID)
		}
		if _, ok := quantities[req.MenuItemID]; !ok {
			ids = append(ids, req.MenuItemID)
		}
		quantities[req.MenuItemID] += req.Quantity
	}
	sort.Strings(ids)

	rows, err := tx.QueryContext(ctx, `
		SELECT id, canteen_id, name, price, stock_count
		FROM menu_items
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := make(map[string]domain.MenuItem, len(ids))
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(&item.ID, &item.CanteenID, &item.Name, &item.Price, &item.StockCount); err != nil {
			return nil, err
		}
		items[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		item, ok := items[id]
		if !ok {
			return nil, fmt.Errorf("item %s: %w", id, domain.ErrItemNotFound)
		}
		if item.StockCount != nil && *item.StockCount < quantities[id] {
			return nil, &domain.InsufficientStockError{
				ItemID:    id,
				Name:      item.Name,
				Stock:     *item.StockCount,
				Requested: quantities[id],
			}
		}
	}

	for _, id := range ids {
		if items[id].StockCount == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE menu_items SET stock_count = stock_count - $2 WHERE id = $1
		`, id, quantities[id]); err != nil {
			return nil, err
		}
	}

	return items, nil
}

// Restore puts reserved quantities back, used when an order is
// cancelled before payment. Untracked items are untouched.
func (r *Repository) Restore(ctx context.Context, tx *sql.Tx, items []domain.OrderItem) error {
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, `
			UPDATE menu_items
			SET stock_count = stock_count + $2
			WHERE id = $1 AND stock_count IS NOT NULL
		`, item.MenuItemID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// GetStock reads a single item's current stock outside any transaction.
func (r *Repository) GetStock(ctx context.Context, itemID string) (*domain.MenuItem, error) {
	item := &domain.MenuItem{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, canteen_id, name, price, stock_count
		FROM menu_items
		WHERE id = $1
	`, itemID).Scan(&item.ID, &item.CanteenID, &item.Name, &item.Price, &item.StockCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}
