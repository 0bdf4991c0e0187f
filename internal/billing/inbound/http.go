package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/billing/entity"
	"github.com/shandysiswandi/otpgate/internal/billing/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type uc interface {
	ListPlans(ctx context.Context) ([]entity.Plan, error)
	SelectPlan(ctx context.Context, in usecase.SelectPlanInput) error

	CreateOrder(ctx context.Context, in usecase.CreateOrderInput) (*usecase.CreateOrderOutput, error)
	ListOrders(ctx context.Context) ([]entity.Order, error)
	PaymentCallback(ctx context.Context, in usecase.PaymentCallbackInput) (*usecase.PaymentCallbackOutput, error)

	GetWallet(ctx context.Context) (*entity.Wallet, error)
	ListTransactions(ctx context.Context) ([]entity.Transaction, error)

	ConsumeOTPSent(ctx context.Context, in usecase.ConsumeOTPSentInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Public
	r.GET("/api/user/plans", end.ListPlans)
	r.GET("/api/user/payment/callback", end.PaymentCallback)

	// Account (need authenticated)
	r.POST("/api/user/plans/select", end.SelectPlan)
	r.POST("/api/user/orders", end.CreateOrder)
	r.GET("/api/user/orders", end.ListOrders)
	r.GET("/api/user/transactions", end.ListTransactions)
	r.GET("/api/user/wallet", end.GetWallet)
}
