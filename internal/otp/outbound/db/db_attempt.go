package db

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpgate/internal/otp/entity"
)

const attemptColumns = `id, api_key_id, account_id, recipient, channel, code, status,
	failure_reason, expires_at, created_at, sent_at, delivered_at`

const (
	queryCreateAttempt = `INSERT INTO otp_attempts
	(id, api_key_id, account_id, recipient, channel, code, status, expires_at, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	queryGetAttempt = `SELECT ` + attemptColumns + ` FROM otp_attempts WHERE id = $1`

	queryRecentAttempts = `SELECT ` + attemptColumns + ` FROM otp_attempts
	WHERE api_key_id = $1 AND account_id = $2 AND recipient = $3
	ORDER BY created_at DESC, id DESC
	LIMIT $4`

	// The status guard makes the update a compare-and-swap; callers read
	// RowsAffected to learn whether they won.
	queryTransitionAttempt = `UPDATE otp_attempts SET
		status = $2::text,
		sent_at = CASE WHEN $2::text = 'sent' THEN $3::timestamptz ELSE sent_at END,
		delivered_at = CASE WHEN $2::text = 'delivered' THEN $3::timestamptz ELSE delivered_at END,
		failure_reason = COALESCE($4::text, failure_reason)
	WHERE id = $1 AND status = ANY($5::text[])`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (entity.Attempt, error) {
	var (
		a       entity.Attempt
		channel string
		status  string
		reason  *string
	)

	if err := row.Scan(
		&a.ID, &a.APIKeyID, &a.AccountID, &a.Recipient, &channel, &a.Code, &status,
		&reason, &a.ExpiresAt, &a.CreatedAt, &a.SentAt, &a.DeliveredAt,
	); err != nil {
		return entity.Attempt{}, err
	}

	a.Channel = entity.Channel(channel)
	a.Status = entity.Status(status)
	if reason != nil {
		a.FailureReason = entity.Reason(*reason)
	}

	return a, nil
}

func (s *DB) CreateAttempt(ctx context.Context, a entity.Attempt) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAttempt")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreateAttempt,
		a.ID, a.APIKeyID, a.AccountID, a.Recipient, a.Channel.String(), a.Code,
		a.Status.String(), a.ExpiresAt, a.CreatedAt,
	)
	err = s.mapError(err)
	return err
}

func (s *DB) GetAttempt(ctx context.Context, id int64) (_ *entity.Attempt, err error) {
	ctx, span := s.startSpan(ctx, "GetAttempt")
	defer func() { s.endSpan(span, err) }()

	a, err := scanAttempt(s.conn.QueryRow(ctx, queryGetAttempt, id))
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &a, nil
}

func (s *DB) ListRecentAttempts(ctx context.Context, apiKeyID, accountID int64, recipient string, limit int) (_ []entity.Attempt, err error) {
	ctx, span := s.startSpan(ctx, "ListRecentAttempts")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryRecentAttempts, apiKeyID, accountID, recipient, limit)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Attempt, error) {
		return scanAttempt(row)
	})
	err = s.mapError(err)
	return out, err
}

// TransitionAttempt applies t only if the attempt is still in one of t.From.
// It reports false when another writer got there first.
func (s *DB) TransitionAttempt(ctx context.Context, t entity.Transition) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "TransitionAttempt")
	defer func() { s.endSpan(span, err) }()

	from := make([]string, 0, len(t.From))
	for _, st := range t.From {
		from = append(from, st.String())
	}

	var reason *string
	if t.FailureReason != entity.ReasonNone {
		r := string(t.FailureReason)
		reason = &r
	}

	tag, err := s.conn.Exec(ctx, queryTransitionAttempt, t.AttemptID, t.To.String(), t.At, reason, from)
	if err != nil {
		err = s.mapError(err)
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func buildLogQuery(f entity.LogFilter) (where string, args []any) {
	conds := []string{"account_id = $1"}
	args = []any{f.AccountID}

	if f.APIKeyID > 0 {
		args = append(args, f.APIKeyID)
		conds = append(conds, "api_key_id = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status.String())
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListAttempts returns one page of an account's attempts and the total matching the filter.
func (s *DB) ListAttempts(ctx context.Context, f entity.LogFilter) (_ []entity.Attempt, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListAttempts")
	defer func() { s.endSpan(span, err) }()

	where, args := buildLogQuery(f)

	var total int64
	if err = s.conn.QueryRow(ctx, "SELECT count(*) FROM otp_attempts"+where, args...).Scan(&total); err != nil {
		err = s.mapError(err)
		return nil, 0, err
	}

	pageArgs := append(args, f.Limit, f.Offset)
	query := "SELECT " + attemptColumns + " FROM otp_attempts" + where +
		" ORDER BY created_at DESC, id DESC LIMIT $" + strconv.Itoa(len(pageArgs)-1) + " OFFSET $" + strconv.Itoa(len(pageArgs))

	rows, err := s.conn.Query(ctx, query, pageArgs...)
	if err != nil {
		err = s.mapError(err)
		return nil, 0, err
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Attempt, error) {
		return scanAttempt(row)
	})
	if err != nil {
		err = s.mapError(err)
		return nil, 0, err
	}

	return out, total, nil
}

// EachAttempt streams every attempt of the account matching f, newest first.
// Limit and Offset are ignored.
func (s *DB) EachAttempt(ctx context.Context, f entity.LogFilter, fn func(entity.Attempt) error) (err error) {
	ctx, span := s.startSpan(ctx, "EachAttempt")
	defer func() { s.endSpan(span, err) }()

	where, args := buildLogQuery(f)
	rows, err := s.conn.Query(ctx, "SELECT "+attemptColumns+" FROM otp_attempts"+where+" ORDER BY created_at DESC, id DESC", args...)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	defer rows.Close()

	for rows.Next() {
		a, scanErr := scanAttempt(rows)
		if scanErr != nil {
			err = scanErr
			return err
		}
		if err = fn(a); err != nil {
			return err
		}
	}

	err = s.mapError(rows.Err())
	return err
}
