package usecase

import (
	"errors"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

func isNotFound(err error) bool {
	return errors.Is(err, goerror.ErrNotFound)
}

var (
	errNoAttempt   = goerror.NewBusiness("No OTP found for this recipient", goerror.CodeNotFound)
	errInvalidCode = goerror.NewBusiness("Invalid OTP", goerror.CodeInvalidCode)
	errExpired     = goerror.NewBusiness("OTP has expired", goerror.CodeExpired)
	errAlreadyUsed = goerror.NewBusiness("OTP has already been used", goerror.CodeAlreadyUsed)
)

var deliveryMessages = map[entity.Reason]string{
	entity.ReasonAuthenticationFailed: "Email authentication failed",
	entity.ReasonTimeout:              "Email delivery timed out",
	entity.ReasonTLSError:             "Secure connection to the email provider failed",
	entity.ReasonUnclassified:         "Failed to send OTP via email",
}

// deliveryError turns a failed result into the error returned to the caller.
func deliveryError(res entity.DeliveryResult) error {
	if res.Reason == entity.ReasonNotImplemented {
		return goerror.WithDetails(
			goerror.NewBusiness("SMS channel is not implemented yet", goerror.CodeNotImplemented),
			map[string]any{"reason": res.Reason.String()},
		)
	}

	msg, ok := deliveryMessages[res.Reason]
	if !ok {
		msg = deliveryMessages[entity.ReasonUnclassified]
	}

	details := map[string]any{"reason": res.Reason.String()}
	if res.ProviderMessage != "" {
		details["provider_message"] = res.ProviderMessage
	}
	if len(res.Hints) > 0 {
		details["hints"] = res.Hints
	}

	return goerror.WithDetails(goerror.NewBusiness(msg, goerror.CodeDeliveryFailed), details)
}
