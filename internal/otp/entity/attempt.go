package entity

import (
	"strings"
	"time"
)

// CodeTTL is how long a code stays verifiable after it is issued.
const CodeTTL = 5 * time.Minute

// Attempt is a single issued code and its lifecycle.
type Attempt struct {
	ID            int64
	APIKeyID      int64
	AccountID     int64
	Recipient     string
	Channel       Channel
	Code          string
	Status        Status
	FailureReason Reason
	ExpiresAt     time.Time
	CreatedAt     time.Time
	SentAt        *time.Time
	DeliveredAt   *time.Time
}

// Matches compares a submitted code ignoring case and surrounding space.
func (a Attempt) Matches(code string) bool {
	return strings.EqualFold(a.Code, strings.TrimSpace(code))
}

// ExpiredAt reports whether the attempt is past its expiry at now.
func (a Attempt) ExpiredAt(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// Tenant is the API key an attempt is issued for, with its delivery credential.
type Tenant struct {
	ID           int64
	AccountID    int64
	Active       bool
	SenderEmail  string
	SenderSecret []byte // sealed
	Provider     string
	SentCount    int64
	CreatedAt    time.Time
}

// HasCredential reports whether the tenant can send email.
func (t Tenant) HasCredential() bool {
	return t.SenderEmail != "" && len(t.SenderSecret) > 0
}

// Transition describes a conditional status change. It applies only while the
// row is in one of From.
type Transition struct {
	AttemptID     int64
	From          []Status
	To            Status
	At            time.Time
	FailureReason Reason
}

// LogFilter narrows the attempts listed for an account.
type LogFilter struct {
	AccountID int64
	APIKeyID  int64
	Status    Status
	Limit     int
	Offset    int
}

// Usage is the running sent count of one tenant.
type Usage struct {
	APIKeyID  int64
	KeyPrefix string
	SentCount int64
	CreatedAt time.Time
}
