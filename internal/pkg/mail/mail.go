package mail

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoRecipients is returned when To is empty.
	ErrNoRecipients = errors.New("mail: no recipients provided")
	// ErrNoSender is returned when the message has no From address.
	ErrNoSender = errors.New("mail: no sender provided")
	// ErrUnknownProvider is returned for provider tags without a transport.
	ErrUnknownProvider = errors.New("mail: unknown provider")
)

// Message represents an email payload.
type Message struct {
	From     string
	FromName string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
	// Tag is forwarded to providers that support message tagging.
	Tag string
}

func (m Message) validate() error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	if m.From == "" {
		return ErrNoSender
	}
	return nil
}

// Sender delivers a message using one sender account.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Credential is a tenant's sender account in clear text. It must never be logged.
type Credential struct {
	Provider string
	Address  string
	Secret   string
}

// ProviderError is a rejection reported by an HTTP email API.
type ProviderError struct {
	Provider string
	Code     int64
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Provider, e.Code, e.Message)
}

// Factory builds a Sender for a tenant credential.
type Factory struct {
	// PostmarkBaseURL overrides the postmark API endpoint; empty uses the default.
	PostmarkBaseURL string
	// PostmarkAccountToken is the operator-level token; tenants only bring server tokens.
	PostmarkAccountToken string
}

// NewFactory returns a Factory with default endpoints.
func NewFactory() *Factory {
	return &Factory{}
}

// For returns the transport for cred.Provider.
func (f *Factory) For(cred Credential) (Sender, error) {
	p, err := Lookup(cred.Provider)
	if err != nil {
		return nil, err
	}

	switch p.Transport {
	case TransportSMTP:
		return newSMTP(p, cred), nil
	case TransportPostmark:
		return newPostmark(f, cred), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cred.Provider)
	}
}
