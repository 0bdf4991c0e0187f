package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type VerifyOTPInput struct {
	Recipient string `validate:"required,recipient"`
	Code      string `validate:"required,otp_code"`
}

type VerifyOTPOutput struct {
	AttemptID  int64
	Recipient  string
	VerifiedAt time.Time
}

// VerifyOTP consumes a code. Only attempts of the calling tenant and account
// are considered, and a code verifies at most once.
func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.Recipient = strings.TrimSpace(in.Recipient)
	in.Code = strings.TrimSpace(in.Code)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	p, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	attempts, err := s.repoDB.ListRecentAttempts(ctx, p.KeyID, p.AccountID, in.Recipient, verifyScanLimit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list recent attempts", "api_key_id", p.KeyID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if len(attempts) == 0 {
		return nil, errNoAttempt
	}

	candidate, spent := pickCandidate(attempts, in.Code)
	if candidate == nil {
		switch {
		case spent != nil && spent.Status == entity.StatusDelivered:
			return nil, errAlreadyUsed
		case spent != nil && spent.Status == entity.StatusExpired:
			return nil, errExpired
		default:
			return nil, errInvalidCode
		}
	}

	now := s.clock.Now()
	if candidate.ExpiredAt(now) {
		if candidate.Status.CanTransitionTo(entity.StatusExpired) {
			if _, err := s.repoDB.TransitionAttempt(ctx, entity.Transition{
				AttemptID: candidate.ID,
				From:      []entity.Status{candidate.Status},
				To:        entity.StatusExpired,
				At:        now,
			}); err != nil {
				slog.ErrorContext(ctx, "failed to repo expire attempt", "attempt_id", candidate.ID, "error", err)
			}
		}
		return nil, errExpired
	}

	// Delivery has not been confirmed yet, so the code cannot be trusted.
	if candidate.Status == entity.StatusPending {
		return nil, errInvalidCode
	}

	won, err := s.repoDB.TransitionAttempt(ctx, entity.Transition{
		AttemptID: candidate.ID,
		From:      []entity.Status{entity.StatusSent},
		To:        entity.StatusDelivered,
		At:        now,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark attempt delivered", "attempt_id", candidate.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !won {
		return nil, s.lostRace(ctx, candidate.ID)
	}

	return &VerifyOTPOutput{
		AttemptID:  candidate.ID,
		Recipient:  candidate.Recipient,
		VerifiedAt: now,
	}, nil
}

// pickCandidate returns the newest verifiable attempt matching code. When there
// is none, spent is the newest matching attempt that is already terminal.
func pickCandidate(attempts []entity.Attempt, code string) (candidate, spent *entity.Attempt) {
	for i := range attempts {
		a := &attempts[i]
		if !a.Matches(code) {
			continue
		}
		if a.Status.Verifiable() {
			return a, nil
		}
		if spent == nil {
			spent = a
		}
	}
	return nil, spent
}

// lostRace reports why a concurrent verify beat this one to the row.
func (s *Usecase) lostRace(ctx context.Context, attemptID int64) error {
	current, err := s.repoDB.GetAttempt(ctx, attemptID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo reload attempt", "attempt_id", attemptID, "error", err)
		return goerror.NewServer(err)
	}

	switch current.Status {
	case entity.StatusDelivered:
		return errAlreadyUsed
	case entity.StatusExpired:
		return errExpired
	default:
		return errInvalidCode
	}
}
