package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpgate/internal/billing/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

const (
	queryListPlans = `SELECT id, name, price_per_otp, monthly_limit, description FROM plans ORDER BY id`

	querySelectPlan = `UPDATE accounts SET plan_id = $2, updated_at = now()
	WHERE id = $1 AND EXISTS (SELECT 1 FROM plans WHERE id = $2)`
)

func (s *DB) ListPlans(ctx context.Context) (_ []entity.Plan, err error) {
	ctx, span := s.startSpan(ctx, "ListPlans")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryListPlans)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	plans, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Plan, error) {
		var p entity.Plan
		err := row.Scan(&p.ID, &p.Name, &p.PricePerOTP, &p.MonthlyLimit, &p.Description)
		return p, err
	})
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return plans, nil
}

// SelectPlan points the account at planID. An unknown plan or account is ErrNotFound.
func (s *DB) SelectPlan(ctx context.Context, accountID, planID int64) (err error) {
	ctx, span := s.startSpan(ctx, "SelectPlan")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, querySelectPlan, accountID, planID)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}

	return nil
}
