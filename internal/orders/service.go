package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/canteenhq/settlement/internal/domain"
	"github.com/canteenhq/settlement/internal/inventory"
)

// Service runs each order operation as a single database transaction:
// creation reserves stock and persists the aggregate together,
// cancellation restores stock and stamps the order together.
type Service struct {
	db   *sql.DB
	repo *Repository
	inv  *inventory.Repository
	now  func() time.Time
}

func NewService(db *sql.DB, repo *Repository, inv *inventory.Repository) *Service {
	return &Service{db: db, repo: repo, inv: inv, now: time.Now}
}

// CreateItem is one requested line of a new order.
type CreateItem struct {
	MenuItemID     string          `json:"menu_item_id"`
	Quantity       int             `json:"quantity"`
	Customizations json.RawMessage `json:"customizations,omitempty"`
}

type CreateParams struct {
	UserID        string
	CanteenID     string
	Items         []CreateItem
	PaymentMethod domain.PaymentMethod
	IsPreOrder    bool
}

// CreateOrder snapshots current catalog prices and names into the
// order, computes the frozen subtotal/tax/total, and reserves stock
// for every line. Fails whole if any item is unknown or short.
func (s *Service) CreateOrder(ctx context.Context, params CreateParams) (*domain.Order, error) {
	if len(params.Items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}
	if !params.PaymentMethod.Valid() {
		return nil, domain.ErrUnsupportedPaymentMethod
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	reqs := make([]inventory.ItemRequest, len(params.Items))
	for i, item := range params.Items {
		reqs[i] = inventory.ItemRequest{MenuItemID: item.MenuItemID, Quantity: item.Quantity}
	}
	menuItems, err := s.inv.Reserve(ctx, tx, reqs)
	if err != nil {
		return nil, err
	}

	status := domain.OrderStatusPending
	if params.IsPreOrder {
		status = domain.OrderStatusScheduled
	}

	order := &domain.Order{
		ID:            uuid.New().String(),
		UserID:        params.UserID,
		CanteenID:     params.CanteenID,
		Status:        status,
		PaymentMethod: params.PaymentMethod,
		PaymentStatus: domain.OrderPaymentPending,
		IsPreOrder:    params.IsPreOrder,
		OrderTime:     s.now().UTC(),
	}

	for _, item := range params.Items {
		menuItem := menuItems[item.MenuItemID]
		order.Items = append(order.Items, domain.OrderItem{
			MenuItemID:     item.MenuItemID,
			Quantity:       item.Quantity,
			Customizations: item.Customizations,
			SnapshotName:   menuItem.Name,
			SnapshotPrice:  menuItem.Price,
		})
		order.Subtotal += menuItem.Price * int64(item.Quantity)
	}
	order.Tax = domain.Tax(order.Subtotal)
	order.TotalAmount = order.Subtotal + order.Tax

	if err := s.repo.Insert(ctx, tx, order); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder returns the order only to its owner.
func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// CancelOrder cancels an unpaid order within the cancellation window
// and puts its reserved stock back, all in one transaction.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID, reason string) (*domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	order, err := s.repo.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}

	now := s.now().UTC()
	if err := order.Cancellable(now); err != nil {
		return nil, err
	}

	if err := s.inv.Restore(ctx, tx, order.Items); err != nil {
		return nil, err
	}
	if err := s.repo.MarkCancelled(ctx, tx, orderID, reason, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatusCancelled
	order.CancelledTime = &now
	order.CancellationReason = reason
	return order, nil
}

// UpdateStatus applies a vendor-side transition. Confirmed is not
// reachable here; only successful payment verification confirms an
// order.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	order, err := s.repo.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	if status == domain.OrderStatusConfirmed || !domain.CanTransition(order.Status, status) {
		return nil, &domain.InvalidStateError{Op: "transition to " + string(status), Status: string(order.Status)}
	}

	now := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, tx, orderID, status, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, orderID)
}
