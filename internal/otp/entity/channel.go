package entity

import "strings"

// Channel is the transport an OTP is delivered over.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// ParseChannel maps a request value onto a Channel. Empty means email.
func ParseChannel(s string) (Channel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "email":
		return ChannelEmail, true
	case "sms":
		return ChannelSMS, true
	default:
		return "", false
	}
}

func (c Channel) String() string {
	return string(c)
}
