package channel

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
)

// SMS is a placeholder until an SMS gateway is integrated. It never delivers.
type SMS struct{}

func NewSMS() *SMS {
	return &SMS{}
}

func (*SMS) Send(context.Context, entity.Tenant, entity.Message) (entity.DeliveryResult, error) {
	return entity.DeliveryResult{
		Reason:          entity.ReasonNotImplemented,
		ProviderMessage: "SMS channel is not implemented yet",
	}, nil
}
