// Package mail sends email on behalf of tenants.
//
// Every tenant brings its own sender account, so senders are built per
// credential by a Factory rather than configured once at boot. SMTP providers
// (gmail, outlook, yahoo, zoho or a custom host) go through net/smtp with
// STARTTLS; postmark goes through its HTTP API. Errors are returned as the
// provider produced them (*textproto.Error for SMTP, *ProviderError for
// postmark) so callers can classify them.
package mail
