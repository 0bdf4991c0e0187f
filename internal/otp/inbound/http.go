package inbound

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type uc interface {
	SendOTP(ctx context.Context, in usecase.SendOTPInput) (*usecase.SendOTPOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)

	ListLogs(ctx context.Context, in usecase.ListLogsInput) (*usecase.ListLogsOutput, error)
	Usage(ctx context.Context, in usecase.UsageInput) (*usecase.UsageOutput, error)
	ExportLogs(ctx context.Context, in usecase.ExportLogsInput) (*usecase.ExportLogsOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Tenant (x-api-key header)
	r.POST("/api/send-otp", end.SendOTP)
	r.POST("/api/verify-otp", end.VerifyOTP)

	// Tenant (key in path)
	r.Keyed(http.MethodGet, "/api/:apiKey/send/:recipient", end.SendOTPByPath)
	r.Keyed(http.MethodPost, "/api/:apiKey/send/:recipient", end.SendOTPByPath)
	r.Keyed(http.MethodGet, "/api/:apiKey/verify/:recipient/:otp", end.VerifyOTPByPath)
	r.Keyed(http.MethodPost, "/api/:apiKey/verify/:recipient/:otp", end.VerifyOTPByPath)
	r.POST("/api/otp/send/:apiKey/:recipient", end.SendOTPByPath)
	r.POST("/api/otp/verify/:apiKey/:recipient/:otp", end.VerifyOTPByPath)

	// Account (need authenticated)
	r.GET("/api/otp-logs", end.ListLogs)
	r.POST("/api/otp-logs/export", end.ExportLogs)
	r.GET("/api/usage", end.Usage)
}
