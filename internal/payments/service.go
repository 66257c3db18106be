package payments

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/canteenhq/settlement/internal/domain"
	"github.com/canteenhq/settlement/internal/merchants"
	"github.com/canteenhq/settlement/internal/orders"
)

// Publisher is the slice of the Kafka producer the service needs.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Service is the settlement workflow: it validates order state,
// selects a processor, persists Payment records and drives their
// transitions. Adapter calls always happen outside any database
// transaction; the payment/order flip happens inside one.
type Service struct {
	db        *sql.DB
	payments  *Repository
	orders    *orders.Repository
	merchants *merchants.Repository
	selector  *ProcessorSelector
	publisher Publisher
	metrics   *Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	db *sql.DB,
	payments *Repository,
	orderRepo *orders.Repository,
	merchantRepo *merchants.Repository,
	selector *ProcessorSelector,
	publisher Publisher,
	metrics *Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		db:        db,
		payments:  payments,
		orders:    orderRepo,
		merchants: merchantRepo,
		selector:  selector,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// InitiatePayment opens a pending settlement attempt for an order. The
// returned ProcessResult carries whatever the client needs to continue
// an external checkout flow.
func (s *Service) InitiatePayment(ctx context.Context, orderID, userID string, method domain.PaymentMethod) (*domain.Payment, *ProcessResult, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, nil, domain.ErrOrderNotFound
	}

	switch order.Status {
	case domain.OrderStatusCancelled, domain.OrderStatusDelivered, domain.OrderStatusConfirmed:
		return nil, nil, &domain.InvalidStateError{Op: "pay", Status: string(order.Status)}
	}

	completed, err := s.payments.GetCompletedByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if completed != nil {
		return nil, nil, domain.ErrPaymentAlreadyCompleted
	}

	var merchant *domain.Merchant
	if method == domain.PaymentMethodUPI {
		merchant, err = s.merchants.GetByCanteenID(ctx, order.CanteenID)
		if err != nil {
			return nil, nil, err
		}
		if merchant == nil {
			return nil, nil, domain.ErrMerchantNotFound
		}
	}

	processor, err := s.selector.Select(method, merchant)
	if err != nil {
		return nil, nil, err
	}

	result, err := processor.ProcessPayment(ctx, ProcessRequest{
		OrderID: orderID,
		UserID:  userID,
		Amount:  order.TotalAmount,
	})
	if err != nil {
		return nil, nil, err
	}

	payment := &domain.Payment{
		ID:               uuid.New().String(),
		OrderID:          orderID,
		UserID:           userID,
		Amount:           order.TotalAmount,
		Method:           method,
		Status:           domain.PaymentStatusPending,
		ProcessorOrderID: result.ProcessorOrderID,
	}
	if merchant != nil {
		payment.MerchantID = merchant.ID
	}
	if err := s.payments.Insert(ctx, payment); err != nil {
		return nil, nil, err
	}

	s.logger.Info("payment initiated",
		"payment_id", payment.ID, "order_id", orderID, "method", method, "amount", payment.Amount)
	return payment, result, nil
}

// VerifyPayment finishes a settlement attempt. A payment that already
// completed is returned unchanged: duplicate callbacks must not debit
// twice. The payment is claimed into processing before the adapter is
// called, so two concurrent callbacks for the same payment cannot both
// reach the debit. On verification failure the payment is marked
// failed and the order stays unpaid, so the client can retry with a
// fresh initiation.
func (s *Service) VerifyPayment(ctx context.Context, payload VerificationPayload) (*domain.Payment, error) {
	payment, err := s.payments.GetByProcessorOrderID(ctx, payload.ProcessorOrderID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrPaymentNotFound
	}
	if payment.Status == domain.PaymentStatusCompleted {
		return payment, nil
	}

	claimed, err := s.payments.Claim(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Lost the race. If the winner already settled, answer like
		// any duplicate callback; otherwise report the collision.
		current, err := s.payments.GetByID(ctx, payment.ID)
		if err != nil {
			return nil, err
		}
		if current != nil && current.Status == domain.PaymentStatusCompleted {
			return current, nil
		}
		return nil, &domain.InvalidStateError{
			Op:     "verify",
			Status: string(domain.PaymentStatusProcessing),
			Reason: "verification already in progress",
		}
	}

	processor, err := s.processorFor(ctx, payment)
	if err != nil {
		s.release(ctx, payment.ID)
		return nil, err
	}

	payload.PaymentID = payment.ID
	payload.OrderID = payment.OrderID
	payload.UserID = payment.UserID
	payload.Amount = payment.Amount

	result, err := processor.VerifyPayment(ctx, payload)
	if err != nil {
		var verifyErr *domain.VerificationError
		if errors.As(err, &verifyErr) {
			if markErr := s.payments.MarkFailed(ctx, payment.ID, verifyErr.Error()); markErr != nil {
				s.logger.Error("failed to mark payment failed", "error", markErr, "payment_id", payment.ID)
			}
			s.metrics.recordFailed(ctx, payment.Method)
			s.logger.Info("payment verification failed", "payment_id", payment.ID, "error", verifyErr)
		} else {
			s.release(ctx, payment.ID)
		}
		return nil, err
	}

	now := s.now().UTC()
	if err := s.complete(ctx, payment, result, now); err != nil {
		return nil, err
	}
	s.metrics.recordSettled(ctx, payment.Method)
	s.logger.Info("payment settled",
		"payment_id", payment.ID, "order_id", payment.OrderID, "method", payment.Method)

	s.publishConfirmed(ctx, payment, now)

	payment.Status = domain.PaymentStatusCompleted
	payment.ProcessorPaymentID = result.ProcessorPaymentID
	payment.ProcessorResponse = result.RawResponse
	payment.UpdatedAt = now
	return payment, nil
}

func (s *Service) release(ctx context.Context, paymentID string) {
	if err := s.payments.Release(ctx, paymentID); err != nil {
		s.logger.Error("failed to release payment claim", "error", err, "payment_id", paymentID)
	}
}

// complete flips the payment and its order in one transaction.
func (s *Service) complete(ctx context.Context, payment *domain.Payment, result *VerifyResult, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.payments.MarkCompleted(ctx, tx, payment.ID, result.ProcessorPaymentID, result.RawResponse, at); err != nil {
		return err
	}
	if err := s.orders.ConfirmPaid(ctx, tx, payment.OrderID, at); err != nil {
		return err
	}
	return tx.Commit()
}

// publishConfirmed hands the post-settlement side effects to the
// worker. Publishing is best-effort: settlement is already committed
// and must not be rolled back by an event failure.
func (s *Service) publishConfirmed(ctx context.Context, payment *domain.Payment, at time.Time) {
	if s.publisher == nil {
		return
	}

	order, err := s.orders.GetByID(ctx, payment.OrderID)
	if err != nil || order == nil {
		s.logger.Error("failed to load order for confirmed event", "error", err, "order_id", payment.OrderID)
		return
	}

	event := domain.OrderConfirmedEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		CanteenID:   order.CanteenID,
		PaymentID:   payment.ID,
		Method:      payment.Method,
		TotalAmount: order.TotalAmount,
		Timestamp:   at,
	}
	if err := s.publisher.Publish(ctx, order.ID, event); err != nil {
		s.logger.Error("failed to publish order confirmed event", "error", err, "order_id", order.ID)
	}
}

// RefundPayment reverses a completed settlement in full. The order's
// payment status flips to refunded in the same transaction as the
// payment row.
func (s *Service) RefundPayment(ctx context.Context, orderID, userID string) (*domain.Payment, *RefundResult, error) {
	payment, err := s.payments.GetCompletedByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if payment == nil || payment.UserID != userID {
		return nil, nil, domain.ErrPaymentNotFound
	}

	processor, err := s.processorFor(ctx, payment)
	if err != nil {
		return nil, nil, err
	}

	result, err := processor.RefundPayment(ctx, payment.ProcessorPaymentID, payment.Amount)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.payments.MarkRefunded(ctx, tx, payment.ID, result.RawResponse, now); err != nil {
		return nil, nil, err
	}
	if err := s.orders.MarkRefunded(ctx, tx, orderID); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	s.metrics.recordRefunded(ctx, payment.Method)
	s.logger.Info("payment refunded",
		"payment_id", payment.ID, "order_id", orderID, "refund_id", result.RefundID)

	payment.Status = domain.PaymentStatusRefunded
	payment.UpdatedAt = now
	return payment, result, nil
}

func (s *Service) PaymentHistory(ctx context.Context, userID string) ([]domain.Payment, error) {
	return s.payments.ListByUser(ctx, userID)
}

// processorFor re-resolves the adapter a payment was initiated with.
func (s *Service) processorFor(ctx context.Context, payment *domain.Payment) (Processor, error) {
	var merchant *domain.Merchant
	if payment.MerchantID != "" {
		var err error
		merchant, err = s.merchants.GetByID(ctx, payment.MerchantID)
		if err != nil {
			return nil, err
		}
		if merchant == nil {
			return nil, domain.ErrMerchantNotFound
		}
	}
	return s.selector.Select(payment.Method, merchant)
}
