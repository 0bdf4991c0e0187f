package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/apikey"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// ResolveKey maps a presented raw key to its tenant. It backs the router's
// API-key authentication.
func (s *Usecase) ResolveKey(ctx context.Context, raw string) (apikey.Principal, error) {
	ctx, span := s.startSpan(ctx, "ResolveKey")
	defer span.End()

	denied := goerror.NewBusiness("Invalid or inactive API key", goerror.CodeForbidden)

	raw = apikey.Normalize(raw)
	if !apikey.WellFormed(raw) {
		return apikey.Principal{}, denied
	}

	fingerprint, err := s.hmac.Hash(raw)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash api key", "error", err)
		return apikey.Principal{}, goerror.NewServer(err)
	}

	key, err := s.repoDB.GetAPIKeyByHash(ctx, string(fingerprint))
	if isNotFound(err) {
		slog.WarnContext(ctx, "api key not found", "key_prefix", apikey.Prefix(raw))
		return apikey.Principal{}, denied
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get api key by hash", "error", err)
		return apikey.Principal{}, goerror.NewServer(err)
	}

	if !key.Active {
		slog.WarnContext(ctx, "api key is inactive", "api_key_id", key.ID)
		return apikey.Principal{}, denied
	}

	return apikey.Principal{KeyID: key.ID, AccountID: key.AccountID}, nil
}
