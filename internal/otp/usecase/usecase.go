package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/apikey"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/storage"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDeliveryTimeout = 15 * time.Second
	defaultExportTTL       = 15 * time.Minute

	// verifyScanLimit bounds how many recent attempts a verify call looks at.
	verifyScanLimit = 20
)

type repoDB interface {
	GetTenant(ctx context.Context, apiKeyID int64) (*entity.Tenant, error)
	GetAttempt(ctx context.Context, id int64) (*entity.Attempt, error)
	ListRecentAttempts(ctx context.Context, apiKeyID, accountID int64, recipient string, limit int) ([]entity.Attempt, error)
	ListAttempts(ctx context.Context, f entity.LogFilter) ([]entity.Attempt, int64, error)
	EachAttempt(ctx context.Context, f entity.LogFilter, fn func(entity.Attempt) error) error
	ListUsage(ctx context.Context, accountID, apiKeyID int64) ([]entity.Usage, error)

	CreateAttempt(ctx context.Context, a entity.Attempt) error
	TransitionAttempt(ctx context.Context, t entity.Transition) (bool, error)
	IncrementSentCount(ctx context.Context, apiKeyID int64) error
}

type repoMessaging interface {
	PublishOTPSent(ctx context.Context, a entity.Attempt) error
}

// Channel delivers a code over one transport. The error is reserved for
// failures that are not the provider's, such as an unreadable credential.
type Channel interface {
	Send(ctx context.Context, tenant entity.Tenant, msg entity.Message) (entity.DeliveryResult, error)
}

type codeGenerator interface {
	Generate() (string, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	channels      map[entity.Channel]Channel
	codes         codeGenerator
	validator     validator.Validator
	cfg           config.Config
	storage       storage.Storage
	uid           uid.NumberID
	uuid          uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Channels      map[entity.Channel]Channel
	Codes         codeGenerator
	Validator     validator.Validator
	Config        config.Config
	Storage       storage.Storage // nil disables export
	UID           uid.NumberID
	UUID          uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		channels:      dep.Channels,
		codes:         dep.Codes,
		validator:     dep.Validator,
		cfg:           dep.Config,
		storage:       dep.Storage,
		uid:           dep.UID,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

func (s *Usecase) deliveryTimeout() time.Duration {
	if d := s.cfg.GetDuration("modules.otp.delivery_timeout"); d > 0 {
		return d
	}
	return defaultDeliveryTimeout
}

func (s *Usecase) exportTTL() time.Duration {
	if d := s.cfg.GetMinute("modules.otp.export_ttl"); d > 0 {
		return d
	}
	return defaultExportTTL
}

// principal returns the tenant the request authenticated as.
func (s *Usecase) principal(ctx context.Context) (*apikey.Principal, error) {
	p := apikey.Get(ctx)
	if p == nil {
		return nil, goerror.NewBusiness("API key is required", goerror.CodeUnauthorized)
	}
	return p, nil
}

func (s *Usecase) account(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

// activeTenant loads the key behind p and checks it may issue codes.
func (s *Usecase) activeTenant(ctx context.Context, p *apikey.Principal) (*entity.Tenant, error) {
	tenant, err := s.repoDB.GetTenant(ctx, p.KeyID)
	if err != nil && !isNotFound(err) {
		slog.ErrorContext(ctx, "failed to repo get tenant", "api_key_id", p.KeyID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if tenant == nil || !tenant.Active || tenant.AccountID != p.AccountID {
		slog.WarnContext(ctx, "api key is not usable", "api_key_id", p.KeyID)
		return nil, goerror.NewBusiness("Invalid or inactive API key", goerror.CodeForbidden)
	}

	return tenant, nil
}
