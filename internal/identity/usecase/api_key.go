package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/apikey"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/secret"
)

type CreateAPIKeyInput struct {
	SenderEmail  string `validate:"required,email"`
	SenderSecret string `validate:"required,max=512"`
	Provider     string `validate:"max=128"`
}

type CreateAPIKeyOutput struct {
	ID           int64
	APIKey       string
	KeyPrefix    string
	Provider     string
	SenderEmail  string
	SetupWarning string
	CreatedAt    time.Time
}

// CreateAPIKey issues a key for the caller's account. The raw key is only
// ever returned here; storage keeps its fingerprint.
func (s *Usecase) CreateAPIKey(ctx context.Context, in CreateAPIKeyInput) (*CreateAPIKeyOutput, error) {
	ctx, span := s.startSpan(ctx, "CreateAPIKey")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.SenderEmail = strings.TrimSpace(in.SenderEmail)
	in.Provider = strings.ToLower(strings.TrimSpace(in.Provider))
	if in.Provider == "" {
		in.Provider = mail.DefaultProvider
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	provider, err := mail.Lookup(in.Provider)
	if err != nil {
		return nil, goerror.NewInvalidInput(nil, "provider", "provider is not supported")
	}

	raw, err := s.keys.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate api key", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	fingerprint, err := s.hmac.Hash(raw)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash api key", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	sealed, err := s.sealer.Seal([]byte(in.SenderSecret), secret.Scope{
		AccountID: clm.AccountID,
		Purpose:   secret.PurposeSenderCredential,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to seal sender secret", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	key := entity.APIKey{
		ID:           s.uid.Generate(),
		AccountID:    clm.AccountID,
		KeyHash:      string(fingerprint),
		KeyPrefix:    apikey.Prefix(raw),
		SenderEmail:  in.SenderEmail,
		SenderSecret: sealed,
		Provider:     provider.Name,
		Active:       true,
		CreatedAt:    s.clock.Now(),
	}

	if err := s.repoDB.CreateAPIKey(ctx, key); err != nil {
		slog.ErrorContext(ctx, "failed to repo create api key", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &CreateAPIKeyOutput{
		ID:           key.ID,
		APIKey:       raw,
		KeyPrefix:    key.KeyPrefix,
		Provider:     key.Provider,
		SenderEmail:  key.SenderEmail,
		SetupWarning: provider.SetupWarning,
		CreatedAt:    key.CreatedAt,
	}, nil
}

type ListAPIKeysOutput struct {
	Keys []entity.APIKey
}

func (s *Usecase) ListAPIKeys(ctx context.Context) (*ListAPIKeysOutput, error) {
	ctx, span := s.startSpan(ctx, "ListAPIKeys")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	keys, err := s.repoDB.ListAPIKeys(ctx, clm.AccountID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list api keys", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListAPIKeysOutput{Keys: keys}, nil
}

type APIKeyInput struct {
	ID int64 `validate:"required,gt=0"`
}

func (s *Usecase) DeactivateAPIKey(ctx context.Context, in APIKeyInput) error {
	ctx, span := s.startSpan(ctx, "DeactivateAPIKey")
	defer span.End()

	if _, err := s.ownedKey(ctx, in); err != nil {
		return err
	}

	if err := s.repoDB.DeactivateAPIKey(ctx, in.ID); err != nil {
		slog.ErrorContext(ctx, "failed to repo deactivate api key", "api_key_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// DeleteAPIKey soft-deletes a key. Its attempts stay readable in the logs.
func (s *Usecase) DeleteAPIKey(ctx context.Context, in APIKeyInput) error {
	ctx, span := s.startSpan(ctx, "DeleteAPIKey")
	defer span.End()

	if _, err := s.ownedKey(ctx, in); err != nil {
		return err
	}

	if err := s.repoDB.MarkAPIKeyDeleted(ctx, in.ID); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete api key", "api_key_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

func (s *Usecase) ownedKey(ctx context.Context, in APIKeyInput) (*entity.APIKey, error) {
	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	key, err := s.repoDB.GetAPIKey(ctx, in.ID)
	if isNotFound(err) {
		return nil, goerror.NewBusiness("API key not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get api key", "api_key_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if key.AccountID != clm.AccountID {
		slog.WarnContext(ctx, "api key belongs to another account", "api_key_id", in.ID, "account_id", clm.AccountID)
		return nil, goerror.NewBusiness("API key belongs to another account", goerror.CodeForbidden)
	}

	return key, nil
}
