package entity

import "time"

// Account is a business that signs up to issue codes through its own API keys.
type Account struct {
	ID                   int64
	CompanyName          string
	Email                string
	PasswordHash         string
	ContactNumber        string
	TaxID                string
	BusinessPAN          string
	RegisteredBusinessID string
	PlanID               *int64
	CreatedAt            time.Time
}

// APIKey is a tenant credential. Only the HMAC fingerprint of the raw key is stored.
type APIKey struct {
	ID           int64
	AccountID    int64
	KeyHash      string
	KeyPrefix    string
	SenderEmail  string
	SenderSecret []byte
	Provider     string
	Active       bool
	SentCount    int64
	CreatedAt    time.Time
}
