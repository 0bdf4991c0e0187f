package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/billing/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
)

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := msg.Header(messaging.HeaderCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) OTPSentDebit(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("billing.inbound.mq").Start(ctx, "OTPSentDebit")
	defer span.End()

	body := msg.Body
	slog.InfoContext(ctx, "consume: otp sent debit", "msg_body", string(body), "attempt", msg.Attempt)

	var payload event.OTPSentMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of otp sent", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeOTPSent(ctx, usecase.ConsumeOTPSentInput{
		AttemptID: payload.AttemptID,
		AccountID: payload.AccountID,
		APIKeyID:  payload.APIKeyID,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume otp sent", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
