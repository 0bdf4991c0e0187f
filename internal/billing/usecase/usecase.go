package usecase

import (
	"context"
	"errors"

	"github.com/shandysiswandi/otpgate/internal/billing/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const defaultTransactionLimit = 100

type repoDB interface {
	ListPlans(ctx context.Context) ([]entity.Plan, error)
	SelectPlan(ctx context.Context, accountID, planID int64) error

	CreateOrder(ctx context.Context, o entity.Order) error
	GetOrderByReference(ctx context.Context, referenceID string) (*entity.Order, error)
	ListOrders(ctx context.Context, accountID int64) ([]entity.Order, error)
	FailOrder(ctx context.Context, orderID int64, paymentID string) (bool, error)
	CompleteOrder(ctx context.Context, o entity.Order, paymentID string, credit entity.Transaction) (bool, error)

	GetWallet(ctx context.Context, accountID int64) (*entity.Wallet, error)
	ListTransactions(ctx context.Context, accountID int64, limit int) ([]entity.Transaction, error)
	Debit(ctx context.Context, t entity.Transaction) (bool, error)
}

type Usecase struct {
	repoDB    repoDB
	idemp     idempotency.Idempotency
	validator validator.Validator
	cfg       config.Config
	signer    hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB      repoDB
	Idempotency idempotency.Idempotency
	Validator   validator.Validator
	Config      config.Config
	Signer      hash.Hash // verifies payment gateway callbacks
	UID         uid.NumberID
	UUID        uid.StringID
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		idemp:     dep.Idempotency,
		validator: dep.Validator,
		cfg:       dep.Config,
		signer:    dep.Signer,
		uid:       dep.UID,
		uuid:      dep.UUID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("billing.usecase").Start(ctx, name)
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
