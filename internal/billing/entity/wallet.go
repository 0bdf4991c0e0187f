package entity

import (
	"errors"
	"strconv"
	"time"
)

// ErrInsufficientBalance is returned by a debit that would take a wallet below zero.
var ErrInsufficientBalance = errors.New("insufficient wallet balance")

// CreditsPerOTP is what one delivered code costs.
const CreditsPerOTP int64 = 1

type Wallet struct {
	AccountID int64
	Balance   int64
	UpdatedAt time.Time
}

type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

func (t TransactionType) String() string {
	return string(t)
}

// Transaction is one wallet movement. Reference is unique and makes
// credits and debits idempotent.
type Transaction struct {
	ID          int64
	AccountID   int64
	Type        TransactionType
	Amount      int64
	Description string
	OrderID     *int64
	Reference   string
	CreatedAt   time.Time
}

// OTPDebitReference is the reference of the debit for one sent attempt.
func OTPDebitReference(attemptID int64) string {
	return "otp:" + strconv.FormatInt(attemptID, 10)
}

// OrderCreditReference is the reference of the credit for one paid order.
func OrderCreditReference(referenceID string) string {
	return "order:" + referenceID
}
