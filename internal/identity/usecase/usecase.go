package usecase

import (
	"context"
	"errors"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/secret"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetAccountByEmail(ctx context.Context, email string) (*entity.Account, error)
	GetAPIKey(ctx context.Context, id int64) (*entity.APIKey, error)
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*entity.APIKey, error)
	ListAPIKeys(ctx context.Context, accountID int64) ([]entity.APIKey, error)

	NewAccount(ctx context.Context, acc entity.Account) error
	CreateAPIKey(ctx context.Context, key entity.APIKey) error
	DeactivateAPIKey(ctx context.Context, id int64) error
	MarkAPIKeyDeleted(ctx context.Context, id int64) error
}

type keyGenerator interface {
	Generate() (string, error)
}

type Usecase struct {
	repoDB    repoDB
	validator validator.Validator
	cfg       config.Config
	hmac      hash.Hash
	bcrypt    hash.Hash
	sealer    secret.Sealer
	keys      keyGenerator
	uid       uid.NumberID
	clock     clock.Clocker
	jwt       jwt.JWT
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	Validator  validator.Validator
	Config     config.Config
	HMAC       hash.Hash
	Bcrypt     hash.Hash
	Sealer     secret.Sealer
	Keys       keyGenerator
	UID        uid.NumberID
	Clock      clock.Clocker
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		validator: dep.Validator,
		cfg:       dep.Config,
		hmac:      dep.HMAC,
		bcrypt:    dep.Bcrypt,
		sealer:    dep.Sealer,
		keys:      dep.Keys,
		uid:       dep.UID,
		clock:     dep.Clock,
		jwt:       dep.JWT,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, goerror.ErrNotFound)
}
