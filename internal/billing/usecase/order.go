package usecase

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/billing/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type CreateOrderInput struct {
	Amount           int64 `validate:"required,gt=0"`
	CreditsPurchased int64 `validate:"required,gt=0"`
}

type CreateOrderOutput struct {
	Order      entity.Order
	PaymentURL string
}

// CreateOrder opens a pending credit purchase. The account pays through the
// returned link and the gateway reports back on the payment callback.
func (s *Usecase) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderOutput, error) {
	ctx, span := s.startSpan(ctx, "CreateOrder")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ref := s.uuid.Generate()
	order := entity.Order{
		ID:               s.uid.Generate(),
		AccountID:        clm.AccountID,
		Amount:           in.Amount,
		CreditsPurchased: in.CreditsPurchased,
		Status:           entity.OrderStatusPending,
		ReferenceID:      ref,
		PaymentLinkID:    "plink_" + strings.ReplaceAll(ref, "-", ""),
		CreatedAt:        s.clock.Now(),
	}

	if err := s.repoDB.CreateOrder(ctx, order); err != nil {
		slog.ErrorContext(ctx, "failed to repo create order", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &CreateOrderOutput{Order: order, PaymentURL: s.paymentURL(order)}, nil
}

func (s *Usecase) paymentURL(o entity.Order) string {
	base := strings.TrimSpace(s.cfg.GetString("modules.billing.payment_url"))
	if base == "" {
		return ""
	}

	q := url.Values{}
	q.Set("payment_link_id", o.PaymentLinkID)
	q.Set("reference_id", o.ReferenceID)
	return base + "?" + q.Encode()
}

func (s *Usecase) ListOrders(ctx context.Context) ([]entity.Order, error) {
	ctx, span := s.startSpan(ctx, "ListOrders")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	orders, err := s.repoDB.ListOrders(ctx, clm.AccountID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list orders", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return orders, nil
}
