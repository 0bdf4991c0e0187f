package inbound

import (
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
)

type SendOTPRequest struct {
	Recipient string `json:"recipient"`
	Channel   string `json:"channel"`
}

type SendOTPResponse struct {
	AttemptID int64     `json:"attempt_id,string"`
	Recipient string    `json:"recipient"`
	Channel   string    `json:"channel"`
	Expiry    time.Time `json:"expiry"`
}

func (SendOTPResponse) Message() string {
	return "OTP sent successfully"
}

type VerifyOTPRequest struct {
	Recipient string `json:"recipient"`
	OTP       string `json:"otp"`
}

type VerifyOTPResponse struct {
	Recipient  string    `json:"recipient"`
	VerifiedAt time.Time `json:"verified_at"`
}

func (VerifyOTPResponse) Message() string {
	return "OTP verified successfully"
}

// DeliveryFailureDetails documents the details object of a failed send.
type DeliveryFailureDetails struct {
	Reason          string      `json:"reason" example:"authentication_failed"`
	ProviderMessage string      `json:"provider_message,omitempty"`
	Hints           []mail.Hint `json:"hints,omitempty"`
}

type OTPLogResponse struct {
	ID            int64      `json:"id,string"`
	APIKeyID      int64      `json:"api_key_id,string"`
	Recipient     string     `json:"recipient"`
	Channel       string     `json:"channel"`
	Status        string     `json:"status"`
	FailureReason string     `json:"failure_reason,omitempty"`
	ExpiresAt     time.Time  `json:"expires_at"`
	CreatedAt     time.Time  `json:"created_at"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
}

type OTPLogsResponse struct {
	Logs   []OTPLogResponse `json:"logs"`
	total  int64
	limit  int
	offset int
}

func (r OTPLogsResponse) Meta() map[string]any {
	return map[string]any{
		"total":  r.total,
		"limit":  r.limit,
		"offset": r.offset,
	}
}

type UsageKeyResponse struct {
	APIKeyID  int64     `json:"api_key_id,string"`
	KeyPrefix string    `json:"key_prefix"`
	SentCount int64     `json:"number_of_sent_otps"`
	CreatedAt time.Time `json:"created_at"`
}

type UsageResponse struct {
	TotalSent int64              `json:"total_sent"`
	Keys      []UsageKeyResponse `json:"keys"`
}

func (UsageResponse) Message() string {
	return "API usage retrieved successfully"
}

type ExportLogsRequest struct {
	APIKeyID int64  `json:"api_key_id,string"`
	Status   string `json:"status"`
}

type ExportLogsResponse struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Rows      int       `json:"rows"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (ExportLogsResponse) Message() string {
	return "Export is ready"
}
