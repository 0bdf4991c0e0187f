package channel

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/secret"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrCredentialUnavailable means the tenant's sealed sender secret could not be opened.
var ErrCredentialUnavailable = errors.New("channel: sender credential unavailable")

type senderFactory interface {
	For(cred mail.Credential) (mail.Sender, error)
}

// Email sends codes through the tenant's own sender account.
type Email struct {
	factory senderFactory
	sealer  secret.Sealer
	ins     instrument.Instrumentation
}

func NewEmail(factory senderFactory, sealer secret.Sealer, ins instrument.Instrumentation) *Email {
	return &Email{factory: factory, sealer: sealer, ins: ins}
}

// Send delivers msg. Provider failures come back classified in the result; the
// error is reserved for a credential that cannot be opened.
func (e *Email) Send(ctx context.Context, tenant entity.Tenant, msg entity.Message) (entity.DeliveryResult, error) {
	ctx, span := e.ins.Tracer("otp.outbound.channel").Start(ctx, "Email.Send")
	defer span.End()

	span.SetAttributes(attribute.String("provider", tenant.Provider))

	plain, err := e.sealer.Open(tenant.SenderSecret, secret.Scope{
		AccountID: tenant.AccountID,
		Purpose:   secret.PurposeSenderCredential,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return entity.DeliveryResult{}, errors.Join(ErrCredentialUnavailable, err)
	}

	sender, err := e.factory.For(mail.Credential{
		Provider: tenant.Provider,
		Address:  tenant.SenderEmail,
		Secret:   string(plain),
	})
	if err != nil {
		slog.WarnContext(ctx, "no transport for tenant provider", "api_key_id", tenant.ID, "provider", tenant.Provider, "error", err)
		return Classify(tenant.Provider, err), nil
	}

	text, html, err := render(msg.Code, entity.CodeTTL)
	if err != nil {
		span.RecordError(err)
		return entity.DeliveryResult{}, err
	}

	err = sender.Send(ctx, mail.Message{
		From:     tenant.SenderEmail,
		To:       []string{msg.Recipient},
		Subject:  subject,
		TextBody: text,
		HTMLBody: html,
		Tag:      "otp",
	})

	res := Classify(tenant.Provider, err)
	if !res.Delivered {
		span.SetStatus(codes.Error, res.Reason.String())
	}

	return res, nil
}
