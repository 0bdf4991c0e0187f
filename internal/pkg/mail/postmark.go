package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// Postmark sends mail through the Postmark HTTP API using the tenant's server token.
type Postmark struct {
	client *postmark.Client
}

func newPostmark(f *Factory, cred Credential) *Postmark {
	client := postmark.NewClient(cred.Secret, f.PostmarkAccountToken)
	if f.PostmarkBaseURL != "" {
		client.BaseURL = f.PostmarkBaseURL
	}
	return &Postmark{client: client}
}

// Send delivers msg. A rejection by Postmark is returned as *ProviderError.
func (p *Postmark) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	from := msg.From
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.From)
	}

	for _, to := range msg.To {
		resp, err := p.client.SendEmail(ctx, postmark.Email{
			From:     from,
			To:       to,
			Subject:  msg.Subject,
			Tag:      msg.Tag,
			TextBody: msg.TextBody,
			HTMLBody: msg.HTMLBody,
		})
		// Non-2xx replies come back as APIError with an empty resp.
		var apiErr postmark.APIError
		if errors.As(err, &apiErr) {
			return &ProviderError{Provider: "postmark", Code: apiErr.ErrorCode, Message: apiErr.Message}
		}
		if err != nil {
			return fmt.Errorf("postmark: %w", err)
		}
		if resp.ErrorCode > 0 {
			return &ProviderError{Provider: "postmark", Code: resp.ErrorCode, Message: resp.Message}
		}
	}

	return nil
}
