package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

const (
	defaultLogLimit = 20
	maxLogLimit     = 100
)

type ListLogsInput struct {
	APIKeyID int64
	Status   string
	Limit    int
	Offset   int
}

type ListLogsOutput struct {
	Attempts []entity.Attempt
	Total    int64
	Limit    int
	Offset   int
}

func (s *Usecase) ListLogs(ctx context.Context, in ListLogsInput) (*ListLogsOutput, error) {
	ctx, span := s.startSpan(ctx, "ListLogs")
	defer span.End()

	clm, err := s.account(ctx)
	if err != nil {
		return nil, err
	}

	filter, err := logFilter(clm.AccountID, in.APIKeyID, in.Status)
	if err != nil {
		return nil, err
	}

	if in.Limit <= 0 || in.Limit > maxLogLimit {
		in.Limit = defaultLogLimit
	}
	filter.Limit = in.Limit
	filter.Offset = max(in.Offset, 0)

	attempts, total, err := s.repoDB.ListAttempts(ctx, filter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list otp attempts", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListLogsOutput{
		Attempts: attempts,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}, nil
}

func logFilter(accountID, apiKeyID int64, status string) (entity.LogFilter, error) {
	f := entity.LogFilter{AccountID: accountID, APIKeyID: max(apiKeyID, 0)}
	if status == "" {
		return f, nil
	}

	st, ok := entity.ParseStatus(status)
	if !ok {
		return f, goerror.NewInvalidInput(nil, "status", "status must be one of pending, sent, failed, delivered, expired")
	}
	f.Status = st

	return f, nil
}
