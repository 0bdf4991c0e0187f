package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	all := []Status{StatusPending, StatusSent, StatusFailed, StatusDelivered, StatusExpired}
	legal := map[[2]Status]bool{
		{StatusPending, StatusSent}:    true,
		{StatusPending, StatusFailed}:  true,
		{StatusPending, StatusExpired}: true,
		{StatusSent, StatusDelivered}:  true,
		{StatusSent, StatusExpired}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, legal[[2]Status{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusSent.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusExpired.Terminal())
	assert.False(t, Status("bogus").Terminal())
}

func TestParseStatus(t *testing.T) {
	st, ok := ParseStatus(" Sent ")
	assert.True(t, ok)
	assert.Equal(t, StatusSent, st)

	_, ok = ParseStatus("queued")
	assert.False(t, ok)
}

func TestParseChannel(t *testing.T) {
	tests := []struct {
		in   string
		want Channel
		ok   bool
	}{
		{"", ChannelEmail, true},
		{"EMAIL", ChannelEmail, true},
		{"sms", ChannelSMS, true},
		{"fax", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseChannel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestAttempt_MatchesAndExpiry(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := Attempt{Code: "AB12CD", ExpiresAt: now.Add(CodeTTL)}

	assert.True(t, a.Matches(" ab12cd "))
	assert.False(t, a.Matches("AB12CE"))
	assert.False(t, a.ExpiredAt(now))
	assert.True(t, a.ExpiredAt(now.Add(CodeTTL)))
	assert.Equal(t, "none", ReasonNone.String())
}
