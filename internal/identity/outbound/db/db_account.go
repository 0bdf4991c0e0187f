package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
)

const (
	queryGetAccountByEmail = `SELECT id, company_name, email, password_hash, contact_number, tax_id,
	business_pan, registered_business_id, plan_id, created_at
	FROM accounts WHERE email = $1`

	queryCreateAccount = `INSERT INTO accounts (id, company_name, email, password_hash, contact_number,
	tax_id, business_pan, registered_business_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`

	queryCreateWallet = `INSERT INTO wallets (account_id, balance, created_at, updated_at) VALUES ($1, 0, $2, $2)`
)

func (s *DB) GetAccountByEmail(ctx context.Context, email string) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccountByEmail")
	defer func() { s.endSpan(span, err) }()

	var a entity.Account
	err = s.conn.QueryRow(ctx, queryGetAccountByEmail, email).Scan(
		&a.ID, &a.CompanyName, &a.Email, &a.PasswordHash, &a.ContactNumber, &a.TaxID,
		&a.BusinessPAN, &a.RegisteredBusinessID, &a.PlanID, &a.CreatedAt,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &a, nil
}

// NewAccount inserts the account and its empty wallet in one transaction.
func (s *DB) NewAccount(ctx context.Context, acc entity.Account) (err error) {
	ctx, span := s.startSpan(ctx, "NewAccount")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	if _, err = tx.Exec(ctx, queryCreateAccount,
		acc.ID, acc.CompanyName, acc.Email, acc.PasswordHash, acc.ContactNumber,
		acc.TaxID, acc.BusinessPAN, acc.RegisteredBusinessID, acc.CreatedAt,
	); err != nil {
		err = s.mapError(err)
		return err
	}

	if _, err = tx.Exec(ctx, queryCreateWallet, acc.ID, acc.CreatedAt); err != nil {
		err = s.mapError(err)
		return err
	}

	err = tx.Commit(ctx)
	return err
}
