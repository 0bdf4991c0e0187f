package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/billing/entity"
	"github.com/shandysiswandi/otpgate/internal/billing/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes plans, credit orders and the account wallet.
type HTTPEndpoint struct {
	uc uc
}

// @Summary List plans
// @Tags Billing
// @Produce json
// @Success 200 {object} router.successResponse{data=PlansResponse} "Plans"
// @Router /api/user/plans [get]
func (h *HTTPEndpoint) ListPlans(r *router.Request) (any, error) {
	plans, err := h.uc.ListPlans(r.Context())
	if err != nil {
		return nil, err
	}

	return PlansResponse{
		Plans: lo.Map(plans, func(p entity.Plan, _ int) PlanResponse {
			return PlanResponse{
				ID:           p.ID,
				Name:         p.Name,
				PricePerOTP:  p.PricePerOTP,
				MonthlyLimit: p.MonthlyLimit,
				Description:  p.Description,
			}
		}),
	}, nil
}

// @Summary Select plan
// @Tags Billing
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body SelectPlanRequest true "Plan"
// @Success 200 {object} router.successResponse{data=SelectPlanResponse} "Plan selected"
// @Failure 404 {object} router.errorResponse "Plan not found"
// @Router /api/user/plans/select [post]
func (h *HTTPEndpoint) SelectPlan(r *router.Request) (any, error) {
	var req SelectPlanRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.SelectPlan(r.Context(), usecase.SelectPlanInput{PlanID: req.PlanID}); err != nil {
		return nil, err
	}

	return SelectPlanResponse{PlanID: req.PlanID}, nil
}

// CreateOrder opens a credit purchase.
// @Summary Create order
// @Tags Billing
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CreateOrderRequest true "Order"
// @Success 201 {object} router.successResponse{data=CreateOrderResponse} "Order created"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/user/orders [post]
func (h *HTTPEndpoint) CreateOrder(r *router.Request) (any, error) {
	var req CreateOrderRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.CreateOrder(r.Context(), usecase.CreateOrderInput{
		Amount:           req.Amount,
		CreditsPurchased: req.CreditsPurchased,
	})
	if err != nil {
		return nil, err
	}

	return CreateOrderResponse{Order: toOrderResponse(resp.Order, 0), PaymentURL: resp.PaymentURL}, nil
}

func toOrderResponse(o entity.Order, _ int) OrderResponse {
	return OrderResponse{
		ID:               o.ID,
		Amount:           o.Amount,
		CreditsPurchased: o.CreditsPurchased,
		Status:           o.Status.String(),
		ReferenceID:      o.ReferenceID,
		PaymentLinkID:    o.PaymentLinkID,
		PaymentID:        o.PaymentID,
		CreatedAt:        o.CreatedAt,
	}
}

// @Summary List orders
// @Tags Billing
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=OrdersResponse} "Orders, newest first"
// @Router /api/user/orders [get]
func (h *HTTPEndpoint) ListOrders(r *router.Request) (any, error) {
	orders, err := h.uc.ListOrders(r.Context())
	if err != nil {
		return nil, err
	}

	return OrdersResponse{Orders: lo.Map(orders, toOrderResponse)}, nil
}

// PaymentCallback is called by the payment gateway when a link settles.
// @Summary Payment callback
// @Tags Billing
// @Produce json
// @Param payment_link_id query string true "Gateway link id"
// @Param reference_id query string true "Order reference"
// @Param status query string true "Gateway status"
// @Param payment_id query string false "Gateway payment id"
// @Param signature query string true "HMAC-SHA256 hex of link|reference|status|payment"
// @Success 200 {object} router.successResponse{data=PaymentCallbackResponse} "Payment processed"
// @Failure 401 {object} router.errorResponse "Invalid payment signature"
// @Failure 404 {object} router.errorResponse "Order not found"
// @Router /api/user/payment/callback [get]
func (h *HTTPEndpoint) PaymentCallback(r *router.Request) (any, error) {
	resp, err := h.uc.PaymentCallback(r.Context(), usecase.PaymentCallbackInput{
		PaymentLinkID: r.GetQuery("payment_link_id"),
		ReferenceID:   r.GetQuery("reference_id"),
		Status:        r.GetQuery("status"),
		PaymentID:     r.GetQuery("payment_id"),
		Signature:     r.GetQuery("signature"),
	})
	if err != nil {
		return nil, err
	}

	return PaymentCallbackResponse{
		OrderID:     resp.OrderID,
		ReferenceID: resp.ReferenceID,
		Status:      resp.Status.String(),
		processed:   resp.AlreadyProcessed,
	}, nil
}

// @Summary Wallet
// @Tags Billing
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=WalletResponse} "Wallet"
// @Failure 404 {object} router.errorResponse "Wallet not found"
// @Router /api/user/wallet [get]
func (h *HTTPEndpoint) GetWallet(r *router.Request) (any, error) {
	w, err := h.uc.GetWallet(r.Context())
	if err != nil {
		return nil, err
	}

	return WalletResponse{Balance: w.Balance, UpdatedAt: w.UpdatedAt}, nil
}

// @Summary List transactions
// @Tags Billing
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=TransactionsResponse} "Transactions, newest first"
// @Router /api/user/transactions [get]
func (h *HTTPEndpoint) ListTransactions(r *router.Request) (any, error) {
	txs, err := h.uc.ListTransactions(r.Context())
	if err != nil {
		return nil, err
	}

	return TransactionsResponse{
		Transactions: lo.Map(txs, func(t entity.Transaction, _ int) TransactionResponse {
			return TransactionResponse{
				ID:          t.ID,
				Type:        t.Type.String(),
				Amount:      t.Amount,
				Description: t.Description,
				OrderID:     t.OrderID,
				Reference:   t.Reference,
				CreatedAt:   t.CreatedAt,
			}
		}),
	}, nil
}
