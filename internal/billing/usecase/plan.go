package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/billing/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

func (s *Usecase) ListPlans(ctx context.Context) ([]entity.Plan, error) {
	ctx, span := s.startSpan(ctx, "ListPlans")
	defer span.End()

	plans, err := s.repoDB.ListPlans(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list plans", "error", err)
		return nil, goerror.NewServer(err)
	}

	return plans, nil
}

type SelectPlanInput struct {
	PlanID int64 `validate:"required,gt=0"`
}

func (s *Usecase) SelectPlan(ctx context.Context, in SelectPlanInput) error {
	ctx, span := s.startSpan(ctx, "SelectPlan")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	err = s.repoDB.SelectPlan(ctx, clm.AccountID, in.PlanID)
	if isNotFound(err) {
		return goerror.NewBusiness("Plan not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo select plan", "account_id", clm.AccountID, "plan_id", in.PlanID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
