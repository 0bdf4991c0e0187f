package entity

import (
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
)

// Reason classifies why a delivery did not succeed.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonAuthenticationFailed Reason = "authentication_failed"
	ReasonTimeout              Reason = "timeout"
	ReasonTLSError             Reason = "tls_error"
	ReasonNotImplemented       Reason = "not_implemented"
	ReasonUnclassified         Reason = "unclassified"
)

func (r Reason) String() string {
	if r == ReasonNone {
		return "none"
	}
	return string(r)
}

// Message is what a channel delivers to a recipient.
type Message struct {
	Recipient string
	Code      string
	ExpiresAt time.Time
}

// DeliveryResult is the outcome of one channel send.
type DeliveryResult struct {
	Delivered       bool
	Reason          Reason
	ProviderMessage string
	Hints           []mail.Hint
}

// Delivered is the result of a successful send.
func Delivered() DeliveryResult {
	return DeliveryResult{Delivered: true}
}
