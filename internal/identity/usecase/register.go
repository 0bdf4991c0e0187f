package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type RegisterInput struct {
	CompanyName          string `validate:"required,min=2,max=200"`
	Email                string `validate:"required,email"`
	Password             string `validate:"required,password"`
	ContactNumber        string `validate:"max=32"`
	TaxID                string `validate:"max=64"`
	BusinessPAN          string `validate:"max=64"`
	RegisteredBusinessID string `validate:"max=64"`
}

type RegisterOutput struct {
	AccountID int64
	Email     string
}

// Register creates an account together with its empty wallet.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.CompanyName = strings.TrimSpace(in.CompanyName)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	_, err := s.repoDB.GetAccountByEmail(ctx, in.Email)
	if err == nil {
		return nil, goerror.NewBusiness("Email already registered", goerror.CodeConflict)
	}
	if !isNotFound(err) {
		slog.ErrorContext(ctx, "failed to repo get account by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	hashedPassword, err := s.bcrypt.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	acc := entity.Account{
		ID:                   s.uid.Generate(),
		CompanyName:          in.CompanyName,
		Email:                in.Email,
		PasswordHash:         string(hashedPassword),
		ContactNumber:        strings.TrimSpace(in.ContactNumber),
		TaxID:                strings.TrimSpace(in.TaxID),
		BusinessPAN:          strings.TrimSpace(in.BusinessPAN),
		RegisteredBusinessID: strings.TrimSpace(in.RegisteredBusinessID),
		CreatedAt:            s.clock.Now(),
	}

	if err := s.repoDB.NewAccount(ctx, acc); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			return nil, goerror.NewBusiness("Email already registered", goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to repo new account", "email", acc.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RegisterOutput{AccountID: acc.ID, Email: acc.Email}, nil
}
