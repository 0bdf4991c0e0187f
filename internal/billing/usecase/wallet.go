package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/billing/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

func (s *Usecase) GetWallet(ctx context.Context) (*entity.Wallet, error) {
	ctx, span := s.startSpan(ctx, "GetWallet")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	w, err := s.repoDB.GetWallet(ctx, clm.AccountID)
	if isNotFound(err) {
		return nil, goerror.NewBusiness("Wallet not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get wallet", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return w, nil
}

func (s *Usecase) ListTransactions(ctx context.Context) ([]entity.Transaction, error) {
	ctx, span := s.startSpan(ctx, "ListTransactions")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	txs, err := s.repoDB.ListTransactions(ctx, clm.AccountID, defaultTransactionLimit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list transactions", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return txs, nil
}
