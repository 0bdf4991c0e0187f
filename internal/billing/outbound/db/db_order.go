package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpgate/internal/billing/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

const (
	orderColumns = `id, account_id, amount, credits_purchased, status, reference_id, payment_link_id,
	payment_id, created_at`

	queryCreateOrder = `INSERT INTO orders (id, account_id, amount, credits_purchased, status, reference_id,
	payment_link_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`

	queryGetOrderByReference = `SELECT ` + orderColumns + ` FROM orders WHERE reference_id = $1`

	queryListOrders = `SELECT ` + orderColumns + ` FROM orders WHERE account_id = $1
	ORDER BY created_at DESC, id DESC`

	queryFailOrder = `UPDATE orders SET status = 'failed', payment_id = $2, updated_at = now()
	WHERE id = $1 AND status = 'pending'`

	queryCompleteOrder = `UPDATE orders SET status = 'completed', payment_id = $2, updated_at = now()
	WHERE id = $1 AND status IN ('pending', 'failed')`

	queryCreditWallet = `UPDATE wallets SET balance = balance + $2, updated_at = now() WHERE account_id = $1`
)

func scanOrder(row pgx.Row) (entity.Order, error) {
	var o entity.Order
	err := row.Scan(&o.ID, &o.AccountID, &o.Amount, &o.CreditsPurchased, &o.Status, &o.ReferenceID,
		&o.PaymentLinkID, &o.PaymentID, &o.CreatedAt)
	return o, err
}

func (s *DB) CreateOrder(ctx context.Context, o entity.Order) (err error) {
	ctx, span := s.startSpan(ctx, "CreateOrder")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreateOrder,
		o.ID, o.AccountID, o.Amount, o.CreditsPurchased, o.Status, o.ReferenceID, o.PaymentLinkID, o.CreatedAt,
	)
	err = s.mapError(err)
	return err
}

func (s *DB) GetOrderByReference(ctx context.Context, referenceID string) (_ *entity.Order, err error) {
	ctx, span := s.startSpan(ctx, "GetOrderByReference")
	defer func() { s.endSpan(span, err) }()

	o, err := scanOrder(s.conn.QueryRow(ctx, queryGetOrderByReference, referenceID))
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &o, nil
}

func (s *DB) ListOrders(ctx context.Context, accountID int64) (_ []entity.Order, err error) {
	ctx, span := s.startSpan(ctx, "ListOrders")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryListOrders, accountID)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return orders, nil
}

// FailOrder moves a pending order to failed. It reports false when the order
// was no longer pending.
func (s *DB) FailOrder(ctx context.Context, orderID int64, paymentID string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "FailOrder")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryFailOrder, orderID, paymentID)
	if err != nil {
		err = s.mapError(err)
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// CompleteOrder settles an order and credits its wallet atomically, recording
// the credit transaction. A failed order may still complete when the
// gateway later reports it paid. It reports false, changing nothing, when the
// order was already completed.
func (s *DB) CompleteOrder(ctx context.Context, o entity.Order, paymentID string, credit entity.Transaction) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "CompleteOrder")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	tag, err := tx.Exec(ctx, queryCompleteOrder, o.ID, paymentID)
	if err != nil {
		err = s.mapError(err)
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	tag, err = tx.Exec(ctx, queryCreditWallet, o.AccountID, o.CreditsPurchased)
	if err != nil {
		err = s.mapError(err)
		return false, err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return false, err
	}

	if err = insertTransaction(ctx, tx, credit); err != nil {
		err = s.mapError(err)
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return false, err
	}

	return true, nil
}
