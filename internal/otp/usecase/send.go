package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
)

type SendOTPInput struct {
	Recipient string `validate:"required,recipient"`
	Channel   string
}

type SendOTPOutput struct {
	AttemptID int64
	Recipient string
	Channel   entity.Channel
	ExpiresAt time.Time
}

// SendOTP issues a code to the recipient on behalf of the authenticated tenant.
// The attempt row is written before delivery and kept whatever the outcome.
func (s *Usecase) SendOTP(ctx context.Context, in SendOTPInput) (*SendOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "SendOTP")
	defer span.End()

	in.Recipient = strings.TrimSpace(in.Recipient)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ch, ok := entity.ParseChannel(in.Channel)
	if !ok {
		return nil, goerror.NewInvalidInput(nil, "channel", "channel must be one of email, sms")
	}
	span.SetAttributes(attribute.String("channel", ch.String()))

	p, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	tenant, err := s.activeTenant(ctx, p)
	if err != nil {
		return nil, err
	}

	if ch == entity.ChannelEmail && !tenant.HasCredential() {
		slog.WarnContext(ctx, "api key has no sender credential", "api_key_id", tenant.ID)
		return nil, goerror.NewBusiness("API key has no email sender configured", goerror.CodeInvalidInput)
	}

	sender, ok := s.channels[ch]
	if !ok {
		return nil, goerror.NewBusiness("Channel is not available", goerror.CodeNotImplemented)
	}

	code, err := s.codes.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "api_key_id", tenant.ID, "error", err)
		return nil, goerror.NewBusinessWrap(err, "Unable to generate verification code", goerror.CodeGeneration)
	}

	now := s.clock.Now()
	attempt := entity.Attempt{
		ID:        s.uid.Generate(),
		APIKeyID:  tenant.ID,
		AccountID: tenant.AccountID,
		Recipient: in.Recipient,
		Channel:   ch,
		Code:      code,
		Status:    entity.StatusPending,
		ExpiresAt: now.Add(entity.CodeTTL),
		CreatedAt: now,
	}

	if err := s.repoDB.CreateAttempt(ctx, attempt); err != nil {
		slog.ErrorContext(ctx, "failed to repo create otp attempt", "api_key_id", tenant.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	dctx, cancel := context.WithTimeout(ctx, s.deliveryTimeout())
	res, err := sender.Send(dctx, *tenant, entity.Message{
		Recipient: attempt.Recipient,
		Code:      attempt.Code,
		ExpiresAt: attempt.ExpiresAt,
	})
	cancel()

	if err != nil {
		slog.ErrorContext(ctx, "failed to prepare otp delivery", "attempt_id", attempt.ID, "error", err)
		s.markFailed(ctx, attempt.ID, entity.ReasonUnclassified)
		return nil, goerror.NewServer(err)
	}

	if !res.Delivered {
		slog.WarnContext(ctx, "otp delivery failed", "attempt_id", attempt.ID, "reason", res.Reason.String(), "provider_message", res.ProviderMessage)
		s.markFailed(ctx, attempt.ID, res.Reason)
		return nil, deliveryError(res)
	}

	sentAt := s.clock.Now()
	moved, err := s.repoDB.TransitionAttempt(ctx, entity.Transition{
		AttemptID: attempt.ID,
		From:      []entity.Status{entity.StatusPending},
		To:        entity.StatusSent,
		At:        sentAt,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark attempt sent", "attempt_id", attempt.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !moved {
		slog.ErrorContext(ctx, "attempt left pending during delivery", "attempt_id", attempt.ID)
		return nil, goerror.NewServer(errors.New("otp attempt changed state during delivery"))
	}
	attempt.Status = entity.StatusSent
	attempt.SentAt = &sentAt

	// The code already reached the recipient, so accounting failures are logged
	// rather than surfaced.
	if err := s.repoDB.IncrementSentCount(ctx, tenant.ID); err != nil {
		slog.ErrorContext(ctx, "failed to repo increment sent count", "api_key_id", tenant.ID, "error", err)
	}

	if err := s.repoMessaging.PublishOTPSent(ctx, attempt); err != nil {
		slog.ErrorContext(ctx, "failed to publish otp sent", "attempt_id", attempt.ID, "error", err)
	}

	return &SendOTPOutput{
		AttemptID: attempt.ID,
		Recipient: attempt.Recipient,
		Channel:   attempt.Channel,
		ExpiresAt: attempt.ExpiresAt,
	}, nil
}

func (s *Usecase) markFailed(ctx context.Context, attemptID int64, reason entity.Reason) {
	moved, err := s.repoDB.TransitionAttempt(ctx, entity.Transition{
		AttemptID:     attemptID,
		From:          []entity.Status{entity.StatusPending},
		To:            entity.StatusFailed,
		At:            s.clock.Now(),
		FailureReason: reason,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark attempt failed", "attempt_id", attemptID, "error", err)
		return
	}
	if !moved {
		slog.WarnContext(ctx, "attempt was not pending when marking failed", "attempt_id", attemptID)
	}
}
