package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type UsageInput struct {
	APIKeyID int64 // zero lists every key of the account
}

type UsageOutput struct {
	Keys  []entity.Usage
	Total int64
}

func (s *Usecase) Usage(ctx context.Context, in UsageInput) (*UsageOutput, error) {
	ctx, span := s.startSpan(ctx, "Usage")
	defer span.End()

	clm, err := s.account(ctx)
	if err != nil {
		return nil, err
	}

	keys, err := s.repoDB.ListUsage(ctx, clm.AccountID, max(in.APIKeyID, 0))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list usage", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if in.APIKeyID > 0 && len(keys) == 0 {
		return nil, goerror.NewBusiness("No API usage record found", goerror.CodeNotFound)
	}

	out := &UsageOutput{Keys: keys}
	for _, k := range keys {
		out.Total += k.SentCount
	}

	return out, nil
}
