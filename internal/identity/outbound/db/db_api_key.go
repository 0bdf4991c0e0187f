package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

const (
	apiKeyColumns = `id, account_id, key_hash, key_prefix, sender_email, sender_secret, provider,
	active, sent_count, created_at`

	queryGetAPIKey = `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE id = $1 AND deleted_at IS NULL`

	queryGetAPIKeyByHash = `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_hash = $1 AND deleted_at IS NULL`

	queryListAPIKeys = `SELECT ` + apiKeyColumns + ` FROM api_keys
	WHERE account_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC, id DESC`

	queryCreateAPIKey = `INSERT INTO api_keys (id, account_id, key_hash, key_prefix, sender_email,
	sender_secret, provider, active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`

	queryDeactivateAPIKey = `UPDATE api_keys SET active = FALSE, updated_at = now()
	WHERE id = $1 AND deleted_at IS NULL`

	queryDeleteAPIKey = `UPDATE api_keys SET active = FALSE, deleted_at = now(), updated_at = now()
	WHERE id = $1 AND deleted_at IS NULL`
)

func scanAPIKey(row pgx.Row) (entity.APIKey, error) {
	var k entity.APIKey
	err := row.Scan(
		&k.ID, &k.AccountID, &k.KeyHash, &k.KeyPrefix, &k.SenderEmail, &k.SenderSecret, &k.Provider,
		&k.Active, &k.SentCount, &k.CreatedAt,
	)
	return k, err
}

func (s *DB) GetAPIKey(ctx context.Context, id int64) (_ *entity.APIKey, err error) {
	ctx, span := s.startSpan(ctx, "GetAPIKey")
	defer func() { s.endSpan(span, err) }()

	k, err := scanAPIKey(s.conn.QueryRow(ctx, queryGetAPIKey, id))
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &k, nil
}

func (s *DB) GetAPIKeyByHash(ctx context.Context, keyHash string) (_ *entity.APIKey, err error) {
	ctx, span := s.startSpan(ctx, "GetAPIKeyByHash")
	defer func() { s.endSpan(span, err) }()

	k, err := scanAPIKey(s.conn.QueryRow(ctx, queryGetAPIKeyByHash, keyHash))
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &k, nil
}

func (s *DB) ListAPIKeys(ctx context.Context, accountID int64) (_ []entity.APIKey, err error) {
	ctx, span := s.startSpan(ctx, "ListAPIKeys")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryListAPIKeys, accountID)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	keys, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.APIKey, error) {
		return scanAPIKey(row)
	})
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return keys, nil
}

func (s *DB) CreateAPIKey(ctx context.Context, k entity.APIKey) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAPIKey")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreateAPIKey,
		k.ID, k.AccountID, k.KeyHash, k.KeyPrefix, k.SenderEmail, k.SenderSecret, k.Provider, k.Active, k.CreatedAt,
	)
	err = s.mapError(err)
	return err
}

func (s *DB) DeactivateAPIKey(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeactivateAPIKey")
	defer func() { s.endSpan(span, err) }()

	err = s.execOne(ctx, queryDeactivateAPIKey, id)
	return err
}

func (s *DB) MarkAPIKeyDeleted(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "MarkAPIKeyDeleted")
	defer func() { s.endSpan(span, err) }()

	err = s.execOne(ctx, queryDeleteAPIKey, id)
	return err
}

func (s *DB) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := s.conn.Exec(ctx, query, args...)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}
