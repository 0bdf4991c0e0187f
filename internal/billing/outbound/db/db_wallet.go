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
	queryGetWallet = `SELECT account_id, balance, updated_at FROM wallets WHERE account_id = $1`

	queryListTransactions = `SELECT id, account_id, type, amount, description, order_id, reference, created_at
	FROM transactions WHERE account_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`

	queryInsertTransaction = `INSERT INTO transactions (id, account_id, type, amount, description, order_id, reference, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	queryInsertTransactionOnce = queryInsertTransaction + ` ON CONFLICT (reference) DO NOTHING`

	queryDebitWallet = `UPDATE wallets SET balance = balance - $2, updated_at = now()
	WHERE account_id = $1 AND balance >= $2`

	queryWalletExists = `SELECT EXISTS (SELECT 1 FROM wallets WHERE account_id = $1)`
)

func insertTransaction(ctx context.Context, tx pgx.Tx, t entity.Transaction) error {
	_, err := tx.Exec(ctx, queryInsertTransaction,
		t.ID, t.AccountID, t.Type, t.Amount, t.Description, t.OrderID, t.Reference, t.CreatedAt)
	return err
}

func (s *DB) GetWallet(ctx context.Context, accountID int64) (_ *entity.Wallet, err error) {
	ctx, span := s.startSpan(ctx, "GetWallet")
	defer func() { s.endSpan(span, err) }()

	var w entity.Wallet
	if err = s.conn.QueryRow(ctx, queryGetWallet, accountID).Scan(&w.AccountID, &w.Balance, &w.UpdatedAt); err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &w, nil
}

func (s *DB) ListTransactions(ctx context.Context, accountID int64, limit int) (_ []entity.Transaction, err error) {
	ctx, span := s.startSpan(ctx, "ListTransactions")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryListTransactions, accountID, limit)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	txs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Transaction, error) {
		var t entity.Transaction
		err := row.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.Description, &t.OrderID, &t.Reference, &t.CreatedAt)
		return t, err
	})
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return txs, nil
}

// Debit records t and takes t.Amount from the wallet atomically. A reference
// that was already recorded is a no-op reported as false. A missing wallet is
// goerror.ErrNotFound and an empty one entity.ErrInsufficientBalance; both
// leave no trace.
func (s *DB) Debit(ctx context.Context, t entity.Transaction) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "Debit")
	defer func() {
		if errors.Is(err, entity.ErrInsufficientBalance) {
			span.End()
			return
		}
		s.endSpan(span, err)
	}()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	tag, err := tx.Exec(ctx, queryInsertTransactionOnce,
		t.ID, t.AccountID, t.Type, t.Amount, t.Description, t.OrderID, t.Reference, t.CreatedAt)
	if err != nil {
		err = s.mapError(err)
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	tag, err = tx.Exec(ctx, queryDebitWallet, t.AccountID, t.Amount)
	if err != nil {
		err = s.mapError(err)
		return false, err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err = tx.QueryRow(ctx, queryWalletExists, t.AccountID).Scan(&exists); err != nil {
			err = s.mapError(err)
			return false, err
		}
		if !exists {
			err = goerror.ErrNotFound
			return false, err
		}
		err = entity.ErrInsufficientBalance
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return false, err
	}

	return true, nil
}
