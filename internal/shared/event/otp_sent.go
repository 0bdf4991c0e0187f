package event

import "time"

const OTPSentDestination string = "otp.sent"
const OTPSentConsumerBilling string = "billing.otp_sent"

// OTPSentMessage is published once per attempt the provider accepted.
type OTPSentMessage struct {
	AttemptID int64     `json:"attempt_id"`
	APIKeyID  int64     `json:"api_key_id"`
	AccountID int64     `json:"account_id"`
	Channel   string    `json:"channel"`
	SentAt    time.Time `json:"sent_at"`
}
