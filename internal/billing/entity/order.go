package entity

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
)

func (s OrderStatus) String() string {
	return string(s)
}

// Order is a credit purchase waiting for, or settled by, the payment gateway.
type Order struct {
	ID               int64
	AccountID        int64
	Amount           int64
	CreditsPurchased int64
	Status           OrderStatus
	ReferenceID      string
	PaymentLinkID    string
	PaymentID        string
	CreatedAt        time.Time
}

// PaymentStatusPaid is the only gateway status that completes an order.
const PaymentStatusPaid = "paid"

// PaymentCallback is what the gateway reports when a payment link settles.
type PaymentCallback struct {
	PaymentLinkID string
	ReferenceID   string
	Status        string
	PaymentID     string
	Signature     string
}

// SignedPayload is the string the gateway signs.
func (c PaymentCallback) SignedPayload() string {
	return strings.Join([]string{c.PaymentLinkID, c.ReferenceID, c.Status, c.PaymentID}, "|")
}

// Paid reports whether the gateway settled the payment.
func (c PaymentCallback) Paid() bool {
	return strings.EqualFold(strings.TrimSpace(c.Status), PaymentStatusPaid)
}
