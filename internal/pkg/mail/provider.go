package mail

import (
	"fmt"
	"net"
	"strings"
)

// Transport names how a provider is reached.
type Transport string

const (
	TransportSMTP     Transport = "smtp"
	TransportPostmark Transport = "postmark"
)

// DefaultProvider is assumed when a tenant does not name one.
const DefaultProvider = "gmail"

// Hint is a structured remediation tip shown when a provider rejects a credential.
type Hint struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	URL      string `json:"url,omitempty"`
}

// Provider describes a well-known email provider.
type Provider struct {
	Name      string
	Transport Transport
	// Addr is host:port for SMTP providers.
	Addr string
	// AuthHints are returned when the provider rejects the tenant's credential.
	AuthHints []Hint
	// SetupWarning is shown once when a key is created for this provider.
	SetupWarning string
}

var providers = map[string]Provider{
	"gmail": {
		Name:      "gmail",
		Transport: TransportSMTP,
		Addr:      "smtp.gmail.com:587",
		AuthHints: []Hint{
			{
				Provider: "gmail",
				Code:     "app_password_required",
				Message:  "Gmail rejects account passwords for SMTP. Enable 2-Step Verification and use a 16 character App Password.",
				URL:      "https://myaccount.google.com/apppasswords",
			},
			{
				Provider: "gmail",
				Code:     "check_sender_address",
				Message:  "The sender email must be the Gmail account the App Password was created for.",
			},
		},
		SetupWarning: "Gmail requires an App Password: enable 2-Step Verification, then create one at https://myaccount.google.com/apppasswords and use it as sender_secret.",
	},
	"outlook": {
		Name:      "outlook",
		Transport: TransportSMTP,
		Addr:      "smtp.office365.com:587",
		AuthHints: []Hint{{
			Provider: "outlook",
			Code:     "smtp_auth_disabled",
			Message:  "Authenticated SMTP must be enabled for the mailbox, and accounts with MFA need an app password.",
			URL:      "https://aka.ms/smtp_auth_disabled",
		}},
	},
	"yahoo": {
		Name:      "yahoo",
		Transport: TransportSMTP,
		Addr:      "smtp.mail.yahoo.com:587",
		AuthHints: []Hint{{
			Provider: "yahoo",
			Code:     "app_password_required",
			Message:  "Yahoo Mail needs an app password generated from Account Security.",
			URL:      "https://login.yahoo.com/account/security",
		}},
		SetupWarning: "Yahoo Mail requires an app password generated from Account Security.",
	},
	"zoho": {
		Name:      "zoho",
		Transport: TransportSMTP,
		Addr:      "smtp.zoho.com:587",
		AuthHints: []Hint{{
			Provider: "zoho",
			Code:     "app_specific_password",
			Message:  "Accounts with two-factor authentication need an application-specific password.",
		}},
	},
	"postmark": {
		Name:      "postmark",
		Transport: TransportPostmark,
		AuthHints: []Hint{{
			Provider: "postmark",
			Code:     "server_token",
			Message:  "Use the Server API token of the Postmark server as sender_secret, and a verified sender signature as sender_email.",
			URL:      "https://account.postmarkapp.com/servers",
		}},
	},
}

const customPrefix = "custom:"

// Lookup resolves a provider tag. Tags are case-insensitive; an empty tag is
// DefaultProvider; "custom:host:port" describes an arbitrary SMTP server.
func Lookup(tag string) (Provider, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		tag = DefaultProvider
	}

	if addr, ok := strings.CutPrefix(tag, customPrefix); ok {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return Provider{}, fmt.Errorf("%w: %q: %v", ErrUnknownProvider, tag, err)
		}
		return Provider{Name: tag, Transport: TransportSMTP, Addr: addr}, nil
	}

	p, ok := providers[tag]
	if !ok {
		return Provider{}, fmt.Errorf("%w: %q", ErrUnknownProvider, tag)
	}
	return p, nil
}
