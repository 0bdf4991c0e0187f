package mq

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

type Messaging struct {
	client  messaging.Messaging
	ins     instrument.Instrumentation
	backoff func() retry.Backoff
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{
		client: client,
		ins:    ins,
		backoff: func() retry.Backoff {
			b := retry.NewFibonacci(100 * time.Millisecond)
			b = retry.WithCappedDuration(2*time.Second, b)
			return retry.WithMaxRetries(4, b)
		},
	}
}

// PublishOTPSent announces a sent attempt. Broker hiccups are retried briefly;
// a closed client is not.
func (m *Messaging) PublishOTPSent(ctx context.Context, a entity.Attempt) error {
	ctx, span := m.ins.Tracer("otp.outbound.mq").Start(ctx, "PublishOTPSent")
	defer span.End()

	sentAt := a.CreatedAt
	if a.SentAt != nil {
		sentAt = *a.SentAt
	}

	body, err := json.Marshal(event.OTPSentMessage{
		AttemptID: a.ID,
		APIKeyID:  a.APIKeyID,
		AccountID: a.AccountID,
		Channel:   a.Channel.String(),
		SentAt:    sentAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	msg := messaging.OutgoingMessage{
		Key:     strconv.FormatInt(a.AccountID, 10),
		Body:    body,
		Headers: map[string]string{messaging.HeaderCorrelationID: instrument.GetCorrelationID(ctx)},
	}

	err = retry.Do(ctx, m.backoff(), func(ctx context.Context) error {
		err := m.client.Publish(ctx, event.OTPSentDestination, msg)
		if err == nil || errors.Is(err, messaging.ErrClosed) {
			return err
		}
		return retry.RetryableError(err)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
