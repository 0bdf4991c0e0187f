package inbound

import (
	"net/http"
	"time"
)

type PlanResponse struct {
	ID           int64  `json:"id,string"`
	Name         string `json:"name"`
	PricePerOTP  int64  `json:"price_per_otp"`
	MonthlyLimit int64  `json:"monthly_limit"`
	Description  string `json:"description"`
}

type PlansResponse struct {
	Plans []PlanResponse `json:"plans"`
}

type SelectPlanRequest struct {
	PlanID int64 `json:"plan_id,string"`
}

type SelectPlanResponse struct {
	PlanID int64 `json:"plan_id,string"`
}

func (SelectPlanResponse) Message() string {
	return "Plan selected successfully"
}

type CreateOrderRequest struct {
	Amount           int64 `json:"amount"`
	CreditsPurchased int64 `json:"credits_purchased"`
}

type OrderResponse struct {
	ID               int64     `json:"id,string"`
	Amount           int64     `json:"amount"`
	CreditsPurchased int64     `json:"credits_purchased"`
	Status           string    `json:"status"`
	ReferenceID      string    `json:"reference_id"`
	PaymentLinkID    string    `json:"payment_link_id"`
	PaymentID        string    `json:"payment_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type CreateOrderResponse struct {
	Order      OrderResponse `json:"order"`
	PaymentURL string        `json:"payment_url,omitempty"`
}

func (CreateOrderResponse) Message() string {
	return "Order created successfully"
}

func (CreateOrderResponse) StatusCode() int {
	return http.StatusCreated
}

type OrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
}

type PaymentCallbackResponse struct {
	OrderID     int64  `json:"order_id,string"`
	ReferenceID string `json:"reference_id"`
	Status      string `json:"status"`
	processed   bool
}

func (r PaymentCallbackResponse) Message() string {
	if r.processed {
		return "Payment already processed"
	}
	return "Payment processed successfully"
}

type WalletResponse struct {
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TransactionResponse struct {
	ID          int64     `json:"id,string"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	OrderID     *int64    `json:"order_id,omitempty,string"`
	Reference   string    `json:"reference"`
	CreatedAt   time.Time `json:"created_at"`
}

type TransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}
