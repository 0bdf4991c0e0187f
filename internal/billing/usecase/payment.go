package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpgate/internal/billing/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
)

const paymentLockDuration = 30 * time.Second

type PaymentCallbackInput struct {
	PaymentLinkID string `validate:"required"`
	ReferenceID   string `validate:"required"`
	Status        string `validate:"required"`
	PaymentID     string
	Signature     string `validate:"required"`
}

type PaymentCallbackOutput struct {
	OrderID          int64
	ReferenceID      string
	Status           entity.OrderStatus
	AlreadyProcessed bool
}

// PaymentCallback settles an order from a signed gateway notification. The same
// notification delivered twice is applied once.
func (s *Usecase) PaymentCallback(ctx context.Context, in PaymentCallbackInput) (*PaymentCallbackOutput, error) {
	ctx, span := s.startSpan(ctx, "PaymentCallback")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cb := entity.PaymentCallback{
		PaymentLinkID: strings.TrimSpace(in.PaymentLinkID),
		ReferenceID:   strings.TrimSpace(in.ReferenceID),
		Status:        strings.TrimSpace(in.Status),
		PaymentID:     strings.TrimSpace(in.PaymentID),
		Signature:     strings.TrimSpace(in.Signature),
	}

	if !s.signer.Verify(cb.Signature, cb.SignedPayload()) {
		slog.WarnContext(ctx, "payment callback signature mismatch", "reference_id", cb.ReferenceID)
		return nil, goerror.NewBusiness("Invalid payment signature", goerror.CodeUnauthorized)
	}

	order, err := s.repoDB.GetOrderByReference(ctx, cb.ReferenceID)
	if isNotFound(err) {
		return nil, goerror.NewBusiness("Order not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get order by reference", "reference_id", cb.ReferenceID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &PaymentCallbackOutput{OrderID: order.ID, ReferenceID: order.ReferenceID, Status: order.Status}
	if order.Status == entity.OrderStatusCompleted {
		out.AlreadyProcessed = true
		return out, nil
	}

	key := "payment:" + cb.ReferenceID + ":" + strings.ToLower(cb.Status) + ":" + cb.PaymentID
	err = s.idemp.Exec(ctx, key, func(ctx context.Context) error {
		status, err := s.settle(ctx, *order, cb)
		if err != nil {
			return err
		}
		out.Status = status
		return nil
	}, idempotency.WithLockDuration(paymentLockDuration))

	switch {
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		out.AlreadyProcessed = true
		return out, nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		return nil, goerror.NewBusiness("Payment is being processed", goerror.CodeConflict)
	case err != nil:
		var gerr *goerror.Error
		if errors.As(err, &gerr) {
			return nil, err
		}
		slog.ErrorContext(ctx, "failed to settle payment", "reference_id", cb.ReferenceID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return out, nil
}

func (s *Usecase) settle(ctx context.Context, order entity.Order, cb entity.PaymentCallback) (entity.OrderStatus, error) {
	if !cb.Paid() {
		if _, err := s.repoDB.FailOrder(ctx, order.ID, cb.PaymentID); err != nil {
			return "", err
		}
		slog.InfoContext(ctx, "order payment failed", "order_id", order.ID, "gateway_status", cb.Status)
		return entity.OrderStatusFailed, nil
	}

	orderID := order.ID
	credit := entity.Transaction{
		ID:          s.uid.Generate(),
		AccountID:   order.AccountID,
		Type:        entity.TransactionCredit,
		Amount:      order.CreditsPurchased,
		Description: "Credits purchased",
		OrderID:     &orderID,
		Reference:   entity.OrderCreditReference(order.ReferenceID),
		CreatedAt:   s.clock.Now(),
	}

	done, err := s.repoDB.CompleteOrder(ctx, order, cb.PaymentID, credit)
	if err != nil {
		return "", err
	}
	if !done {
		slog.InfoContext(ctx, "order already settled", "order_id", order.ID)
	}

	return entity.OrderStatusCompleted, nil
}
