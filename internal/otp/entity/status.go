package entity

import (
	"slices"
	"strings"
)

// Status is the lifecycle state of an OTP attempt.
type Status string

const (
	// StatusPending means the attempt is persisted but delivery has not finished.
	StatusPending Status = "pending"

	// StatusSent means the provider accepted the message.
	StatusSent Status = "sent"

	// StatusFailed means delivery was attempted and did not succeed. Terminal.
	StatusFailed Status = "failed"

	// StatusDelivered means the code was verified. Terminal.
	StatusDelivered Status = "delivered"

	// StatusExpired means the code outlived its expiry before being verified. Terminal.
	StatusExpired Status = "expired"
)

var transitions = map[Status][]Status{
	StatusPending: {StatusSent, StatusFailed, StatusExpired},
	StatusSent:    {StatusDelivered, StatusExpired},
}

// ParseStatus returns the Status named by s. The second value is false for unknown names.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	return st, st.Valid()
}

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed, StatusDelivered, StatusExpired:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether moving from s to next is a legal lifecycle step.
func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// Verifiable reports whether an attempt in this status can still be matched by a verify call.
func (s Status) Verifiable() bool {
	return s == StatusPending || s == StatusSent
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}
