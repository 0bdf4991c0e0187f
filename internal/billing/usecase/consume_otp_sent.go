package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/billing/entity"
)

type ConsumeOTPSentInput struct {
	AttemptID int64 `validate:"required,gt=0"`
	AccountID int64 `validate:"required,gt=0"`
	APIKeyID  int64
}

// ConsumeOTPSent charges the account for one sent code. Redelivered events are
// charged once. Accounts without a wallet or credits are skipped, not blocked.
func (s *Usecase) ConsumeOTPSent(ctx context.Context, in ConsumeOTPSentInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOTPSent")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	debited, err := s.repoDB.Debit(ctx, entity.Transaction{
		ID:          s.uid.Generate(),
		AccountID:   in.AccountID,
		Type:        entity.TransactionDebit,
		Amount:      entity.CreditsPerOTP,
		Description: "OTP sent",
		Reference:   entity.OTPDebitReference(in.AttemptID),
		CreatedAt:   s.clock.Now(),
	})
	switch {
	case isNotFound(err):
		slog.WarnContext(ctx, "skip otp debit, wallet not found", "account_id", in.AccountID, "attempt_id", in.AttemptID)
		return nil
	case errors.Is(err, entity.ErrInsufficientBalance):
		slog.WarnContext(ctx, "skip otp debit, wallet is empty", "account_id", in.AccountID, "attempt_id", in.AttemptID)
		return nil
	case err != nil:
		slog.ErrorContext(ctx, "failed to repo debit wallet", "account_id", in.AccountID, "attempt_id", in.AttemptID, "error", err)
		return err
	}

	if !debited {
		slog.InfoContext(ctx, "otp already debited", "attempt_id", in.AttemptID)
	}

	return nil
}
