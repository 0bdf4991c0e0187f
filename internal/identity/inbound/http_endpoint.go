package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes account signup, login and API key management.
type HTTPEndpoint struct {
	uc uc
}

// Register creates an account.
// @Summary Register account
// @Description Creates a business account with an empty wallet.
// @Tags Identity
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Register payload"
// @Success 201 {object} router.successResponse{data=RegisterResponse} "Account created"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Email already registered"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/user/register [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		CompanyName:          req.CompanyName,
		Email:                req.Email,
		Password:             req.Password,
		ContactNumber:        req.ContactNumber,
		TaxID:                req.TaxID,
		BusinessPAN:          req.BusinessPAN,
		RegisteredBusinessID: req.RegisteredBusinessID,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{AccountID: resp.AccountID, Email: resp.Email}, nil
}

// Login authenticates an account and returns a session token.
// @Summary Login
// @Tags Identity
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Session token"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/user/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		AccessToken: resp.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   resp.ExpiresAt,
	}, nil
}

// CreateAPIKey issues a tenant key bound to a sender account.
// @Summary Create API key
// @Description Returns the raw key once. The sender secret is encrypted at rest.
// @Tags Identity, API Keys
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CreateAPIKeyRequest true "Sender credential"
// @Success 201 {object} router.successResponse{data=CreateAPIKeyResponse} "Key created"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/user/api-keys [post]
func (h *HTTPEndpoint) CreateAPIKey(r *router.Request) (any, error) {
	var req CreateAPIKeyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.CreateAPIKey(r.Context(), usecase.CreateAPIKeyInput{
		SenderEmail:  req.SenderEmail,
		SenderSecret: req.SenderSecret,
		Provider:     req.Provider,
	})
	if err != nil {
		return nil, err
	}

	return CreateAPIKeyResponse{
		ID:          resp.ID,
		APIKey:      resp.APIKey,
		KeyPrefix:   resp.KeyPrefix,
		Provider:    resp.Provider,
		SenderEmail: resp.SenderEmail,
		Warning:     resp.SetupWarning,
		CreatedAt:   resp.CreatedAt,
	}, nil
}

// ListAPIKeys returns the caller's keys without their secrets.
// @Summary List API keys
// @Tags Identity, API Keys
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=APIKeysResponse} "Keys"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Router /api/user/api-keys [get]
func (h *HTTPEndpoint) ListAPIKeys(r *router.Request) (any, error) {
	resp, err := h.uc.ListAPIKeys(r.Context())
	if err != nil {
		return nil, err
	}

	return APIKeysResponse{
		Keys: lo.Map(resp.Keys, func(k entity.APIKey, _ int) APIKeyResponse {
			return APIKeyResponse{
				ID:          k.ID,
				KeyPrefix:   k.KeyPrefix,
				Provider:    k.Provider,
				SenderEmail: k.SenderEmail,
				Active:      k.Active,
				SentCount:   k.SentCount,
				CreatedAt:   k.CreatedAt,
			}
		}),
	}, nil
}

// @Summary Deactivate API key
// @Tags Identity, API Keys
// @Security BearerAuth
// @Produce json
// @Param id path int true "Key id"
// @Success 200 {object} router.successResponse{data=APIKeyStatusResponse} "Key deactivated"
// @Failure 403 {object} router.errorResponse "Key belongs to another account"
// @Failure 404 {object} router.errorResponse "API key not found"
// @Router /api/user/api-keys/{id}/deactivate [patch]
func (h *HTTPEndpoint) DeactivateAPIKey(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	if err := h.uc.DeactivateAPIKey(r.Context(), usecase.APIKeyInput{ID: id}); err != nil {
		return nil, err
	}

	return APIKeyStatusResponse{ID: id, msg: "API key deactivated"}, nil
}

// @Summary Delete API key
// @Tags Identity, API Keys
// @Security BearerAuth
// @Produce json
// @Param id path int true "Key id"
// @Success 200 {object} router.successResponse{data=APIKeyStatusResponse} "Key deleted"
// @Failure 403 {object} router.errorResponse "Key belongs to another account"
// @Failure 404 {object} router.errorResponse "API key not found"
// @Router /api/user/api-keys/{id} [delete]
func (h *HTTPEndpoint) DeleteAPIKey(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	if err := h.uc.DeleteAPIKey(r.Context(), usecase.APIKeyInput{ID: id}); err != nil {
		return nil, err
	}

	return APIKeyStatusResponse{ID: id, msg: "API key deleted"}, nil
}
