package db

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
)

const (
	queryGetTenant = `SELECT id, account_id, active, sender_email, sender_secret, provider, sent_count, created_at
	FROM api_keys WHERE id = $1 AND deleted_at IS NULL`

	queryIncrementSentCount = `UPDATE api_keys SET sent_count = sent_count + 1, updated_at = now()
	WHERE id = $1`

	queryUsageByAccount = `SELECT id, key_prefix, sent_count, created_at FROM api_keys
	WHERE account_id = $1 AND deleted_at IS NULL AND ($2::bigint = 0 OR id = $2)
	ORDER BY created_at DESC, id DESC`
)

func (s *DB) GetTenant(ctx context.Context, apiKeyID int64) (_ *entity.Tenant, err error) {
	ctx, span := s.startSpan(ctx, "GetTenant")
	defer func() { s.endSpan(span, err) }()

	var t entity.Tenant
	err = s.conn.QueryRow(ctx, queryGetTenant, apiKeyID).Scan(
		&t.ID, &t.AccountID, &t.Active, &t.SenderEmail, &t.SenderSecret, &t.Provider, &t.SentCount, &t.CreatedAt,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &t, nil
}

// IncrementSentCount bumps the tenant's counter in one statement so concurrent
// sends never lose an update.
func (s *DB) IncrementSentCount(ctx context.Context, apiKeyID int64) (err error) {
	ctx, span := s.startSpan(ctx, "IncrementSentCount")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryIncrementSentCount, apiKeyID)
	err = s.mapError(err)
	return err
}

// ListUsage returns the counters of an account's keys. A zero apiKeyID means all keys.
func (s *DB) ListUsage(ctx context.Context, accountID, apiKeyID int64) (_ []entity.Usage, err error) {
	ctx, span := s.startSpan(ctx, "ListUsage")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryUsageByAccount, accountID, apiKeyID)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	defer rows.Close()

	var out []entity.Usage
	for rows.Next() {
		var u entity.Usage
		if err = rows.Scan(&u.APIKeyID, &u.KeyPrefix, &u.SentCount, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}

	err = s.mapError(rows.Err())
	return out, err
}
