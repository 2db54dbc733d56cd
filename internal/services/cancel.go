package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/ledger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
)

// Cancel reverses a pending or processing buy or sell order and appends a
// compensating transaction. Exchange orders cannot be cancelled.
func (s *OrderService) Cancel(ctx context.Context, req models.CancelOrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.GetOrder(ctx, req.UserID, req.OrderNumber)
	if err != nil {
		return nil, err
	}
	if existing.Type == models.OrderExchange {
		return nil, apperr.New(apperr.Unsupported, "exchange orders cannot be cancelled")
	}
	crypto := existing.ToCurrency
	if existing.Type == models.OrderSell {
		crypto = existing.FromCurrency
	}

	var (
		order   *models.Order
		entries []*models.Transaction
	)
	err = s.run(ctx, "cancel", func(ctx context.Context, tx ledger.Tx) error {
		now := s.cfg.clock()
		locks := ledger.NewLockSet().
			WithOrder(req.OrderNumber).
			WithUser(req.UserID).
			WithCurrency(crypto).
			WithWalletOrCreate(req.UserID, crypto)
		if err := locks.Acquire(ctx, tx); err != nil {
			return err
		}

		o := locks.Order(req.OrderNumber)
		if !o.Status.Cancellable() {
			return apperr.Newf(apperr.InvalidState, "order %s is %s and cannot be cancelled", o.OrderNumber, o.Status)
		}
		user, cur, wallet := locks.User(req.UserID), locks.Currency(crypto), locks.Wallet(req.UserID, crypto)

		var entry *models.Transaction
		switch o.Type {
		case models.OrderBuy:
			if err := ledger.DebitWallet(wallet, o.ToAmount); err != nil {
				return err
			}
			if err := ledger.AdjustTreasury(cur, o.ToAmount); err != nil {
				return err
			}
			if err := ledger.CreditFiat(user, o.FinalAmount); err != nil {
				return err
			}
			entry = orderTransaction(o, models.TransactionBuy, crypto, o.ToAmount.Neg(), money.Zero, o.ToAmount.Neg(), now)
		case models.OrderSell:
			if err := ledger.DebitFiat(user, o.ToAmount); err != nil {
				return err
			}
			if err := ledger.AdjustTreasury(cur, o.FromAmount.Neg()); err != nil {
				return err
			}
			if err := ledger.CreditWallet(wallet, o.FromAmount); err != nil {
				return err
			}
			entry = orderTransaction(o, models.TransactionSell, crypto, o.FromAmount, money.Zero, o.ToAmount.Neg(), now)
		default:
			return apperr.New(apperr.Unsupported, "exchange orders cannot be cancelled")
		}
		if err := locks.Save(ctx, tx, now); err != nil {
			return err
		}

		reason := req.Reason
		o.Status = models.OrderCancelled
		o.CancellationReason = &reason
		o.UpdatedAt = now
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return err
		}

		entry.IdempotencyKey = o.OrderNumber + ":cancel:" + crypto
		entry.Description = "Cancel " + o.OrderNumber
		entry.Metadata = models.Metadata{"compensates": o.OrderNumber, "reason": reason}
		if err := tx.AppendTransaction(ctx, entry); err != nil {
			return err
		}

		order, entries = o, []*models.Transaction{entry}
		return nil
	})
	if err != nil {
		logFailure("cancel", err, "user_id", req.UserID, "order_number", req.OrderNumber)
		return nil, err
	}

	logger.Log.Infow("order cancelled", "order_number", order.OrderNumber, "user_id", req.UserID, "reason", req.Reason)
	s.publish(ctx, entries...)
	return order, nil
}

// CorrectOrderStatus is the administrative override of an order's status.
// Balances are not touched.
func (s *OrderService) CorrectOrderStatus(ctx context.Context, req models.CorrectOrderStatusRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.run(ctx, "correct order status", func(ctx context.Context, tx ledger.Tx) error {
		now := s.cfg.clock()
		locks := ledger.NewLockSet().WithOrder(req.OrderNumber)
		if err := locks.Acquire(ctx, tx); err != nil {
			return err
		}
		o := locks.Order(req.OrderNumber)
		if o.Status == req.Status {
			return apperr.Newf(apperr.InvalidState, "order %s is already %s", o.OrderNumber, o.Status)
		}

		if o.Metadata == nil {
			o.Metadata = models.Metadata{}
		}
		o.Metadata["status_correction"] = map[string]any{
			"from": string(o.Status),
			"to":   string(req.Status),
			"note": req.Note,
			"at":   now.UTC().Format("2006-01-02T15:04:05Z"),
		}
		o.Status = req.Status
		o.UpdatedAt = now
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		logFailure("correct order status", err, "order_number", req.OrderNumber)
		return nil, err
	}

	logger.Log.Infow("order status corrected", "order_number", order.OrderNumber, "status", order.Status)
	return order, nil
}

// GetOrder returns one of the user's orders. Other users' orders are reported as missing.
func (s *OrderService) GetOrder(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error) {
	o, err := s.store.GetOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.Newf(apperr.NotFound, "order %s not found", orderNumber)
	}
	return o, nil
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	if filter.UserID == uuid.Nil {
		return nil, apperr.New(apperr.InvalidRequest, "user is required")
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.store.ListOrders(ctx, filter)
}

// AllOrders lists orders across users for administration, newest first.
// UserID, Type and Status narrow the listing when set.
func (s *OrderService) AllOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.store.ListOrders(ctx, filter)
}
