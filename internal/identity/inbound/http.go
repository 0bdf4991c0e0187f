package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)

	CreateAPIKey(ctx context.Context, in usecase.CreateAPIKeyInput) (*usecase.CreateAPIKeyOutput, error)
	ListAPIKeys(ctx context.Context) (*usecase.ListAPIKeysOutput, error)
	DeactivateAPIKey(ctx context.Context, in usecase.APIKeyInput) error
	DeleteAPIKey(ctx context.Context, in usecase.APIKeyInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Account
	r.POST("/api/user/register", end.Register)
	r.POST("/api/user/login", end.Login)

	// API keys (need authenticated)
	r.POST("/api/user/api-keys", end.CreateAPIKey)
	r.GET("/api/user/api-keys", end.ListAPIKeys)
	r.PATCH("/api/user/api-keys/:id/deactivate", end.DeactivateAPIKey)
	r.DELETE("/api/user/api-keys/:id", end.DeleteAPIKey)
}
