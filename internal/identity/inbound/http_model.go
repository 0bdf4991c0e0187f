package inbound

import (
	"net/http"
	"time"
)

type RegisterRequest struct {
	CompanyName          string `json:"company_name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	ContactNumber        string `json:"contact_number"`
	TaxID                string `json:"tax_id"`
	BusinessPAN          string `json:"business_pan"`
	RegisteredBusinessID string `json:"registered_business_id"`
}

type RegisterResponse struct {
	AccountID int64  `json:"account_id,string"`
	Email     string `json:"email"`
}

func (RegisterResponse) Message() string {
	return "Account registered successfully"
}

func (RegisterResponse) StatusCode() int {
	return http.StatusCreated
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type" example:"Bearer"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type CreateAPIKeyRequest struct {
	SenderEmail  string `json:"sender_email"`
	SenderSecret string `json:"sender_secret"`
	Provider     string `json:"provider" example:"gmail"`
}

type CreateAPIKeyResponse struct {
	ID          int64     `json:"id,string"`
	APIKey      string    `json:"api_key"`
	KeyPrefix   string    `json:"key_prefix"`
	Provider    string    `json:"provider"`
	SenderEmail string    `json:"sender_email"`
	Warning     string    `json:"warning,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (CreateAPIKeyResponse) Message() string {
	return "API key created. Store it now, it will not be shown again"
}

func (CreateAPIKeyResponse) StatusCode() int {
	return http.StatusCreated
}

type APIKeyResponse struct {
	ID          int64     `json:"id,string"`
	KeyPrefix   string    `json:"key_prefix"`
	Provider    string    `json:"provider"`
	SenderEmail string    `json:"sender_email"`
	Active      bool      `json:"active"`
	SentCount   int64     `json:"number_of_sent_otps"`
	CreatedAt   time.Time `json:"created_at"`
}

type APIKeysResponse struct {
	Keys []APIKeyResponse `json:"keys"`
}

type APIKeyStatusResponse struct {
	ID  int64  `json:"id,string"`
	msg string
}

func (r APIKeyStatusResponse) Message() string {
	return r.msg
}
