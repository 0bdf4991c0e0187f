package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes the OTP issue/verify surface and its account reports.
type HTTPEndpoint struct {
	uc uc
}

// SendOTP issues a code using the key from the x-api-key header.
// @Summary Send OTP
// @Description Generates a code and delivers it to the recipient over the requested channel (email by default).
// @Tags OTP
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body SendOTPRequest true "Send payload"
// @Success 200 {object} router.successResponse{data=SendOTPResponse} "OTP sent"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "API key is required"
// @Failure 403 {object} router.errorResponse "Invalid or inactive API key"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 501 {object} router.errorResponse "Channel not implemented"
// @Failure 502 {object} router.errorResponse{details=DeliveryFailureDetails} "Delivery failed"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/send-otp [post]
func (h *HTTPEndpoint) SendOTP(r *router.Request) (any, error) {
	var req SendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return h.send(r, req)
}

// SendOTPByPath is SendOTP for integrations that carry the key in the URL.
// The channel may be given in an optional JSON body.
// @Summary Send OTP (key in path)
// @Tags OTP
// @Accept json
// @Produce json
// @Param apiKey path string true "API key"
// @Param recipient path string true "Email address or phone number"
// @Success 200 {object} router.successResponse{data=SendOTPResponse} "OTP sent"
// @Failure 403 {object} router.errorResponse "Invalid or inactive API key"
// @Failure 502 {object} router.errorResponse{details=DeliveryFailureDetails} "Delivery failed"
// @Router /api/{apiKey}/send/{recipient} [get]
// @Router /api/{apiKey}/send/{recipient} [post]
// @Router /api/otp/send/{apiKey}/{recipient} [post]
func (h *HTTPEndpoint) SendOTPByPath(r *router.Request) (any, error) {
	var req SendOTPRequest
	if err := r.DecodeOptionalBody(&req); err != nil {
		return nil, err
	}
	req.Recipient = r.GetParam("recipient")

	return h.send(r, req)
}

func (h *HTTPEndpoint) send(r *router.Request, req SendOTPRequest) (any, error) {
	resp, err := h.uc.SendOTP(r.Context(), usecase.SendOTPInput{
		Recipient: req.Recipient,
		Channel:   req.Channel,
	})
	if err != nil {
		return nil, err
	}

	return SendOTPResponse{
		AttemptID: resp.AttemptID,
		Recipient: resp.Recipient,
		Channel:   resp.Channel.String(),
		Expiry:    resp.ExpiresAt,
	}, nil
}

// VerifyOTP consumes a code using the key from the x-api-key header.
// @Summary Verify OTP
// @Description Verifies a code once. Reused codes return 409 and expired codes 410.
// @Tags OTP
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=VerifyOTPResponse} "OTP verified"
// @Failure 400 {object} router.errorResponse "Invalid OTP"
// @Failure 404 {object} router.errorResponse "No OTP found for this recipient"
// @Failure 409 {object} router.errorResponse "OTP has already been used"
// @Failure 410 {object} router.errorResponse "OTP has expired"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/verify-otp [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return h.verify(r, req)
}

// VerifyOTPByPath is VerifyOTP for integrations that carry the key in the URL.
// @Summary Verify OTP (key in path)
// @Tags OTP
// @Produce json
// @Param apiKey path string true "API key"
// @Param recipient path string true "Email address or phone number"
// @Param otp path string true "Code"
// @Success 200 {object} router.successResponse{data=VerifyOTPResponse} "OTP verified"
// @Failure 400 {object} router.errorResponse "Invalid OTP"
// @Failure 410 {object} router.errorResponse "OTP has expired"
// @Router /api/{apiKey}/verify/{recipient}/{otp} [get]
// @Router /api/{apiKey}/verify/{recipient}/{otp} [post]
// @Router /api/otp/verify/{apiKey}/{recipient}/{otp} [post]
func (h *HTTPEndpoint) VerifyOTPByPath(r *router.Request) (any, error) {
	return h.verify(r, VerifyOTPRequest{
		Recipient: r.GetParam("recipient"),
		OTP:       r.GetParam("otp"),
	})
}

func (h *HTTPEndpoint) verify(r *router.Request, req VerifyOTPRequest) (any, error) {
	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Recipient: req.Recipient,
		Code:      req.OTP,
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{
		Recipient:  resp.Recipient,
		VerifiedAt: resp.VerifiedAt,
	}, nil
}

// ListLogs returns the account's OTP attempts, newest first.
// @Summary List OTP logs
// @Tags OTP, Reports
// @Security BearerAuth
// @Produce json
// @Param api_key_id query int false "Only this key"
// @Param status query string false "pending, sent, failed, delivered or expired"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} router.successResponse{data=OTPLogsResponse} "OTP logs"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/otp-logs [get]
func (h *HTTPEndpoint) ListLogs(r *router.Request) (any, error) {
	keyID, err := r.GetQueryInt64("api_key_id")
	if err != nil {
		return nil, err
	}
	limit, err := r.GetQueryInt64("limit")
	if err != nil {
		return nil, err
	}
	offset, err := r.GetQueryInt64("offset")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.ListLogs(r.Context(), usecase.ListLogsInput{
		APIKeyID: keyID,
		Status:   r.GetQuery("status"),
		Limit:    int(limit),
		Offset:   int(offset),
	})
	if err != nil {
		return nil, err
	}

	return OTPLogsResponse{
		Logs:   lo.Map(resp.Attempts, func(a entity.Attempt, _ int) OTPLogResponse { return toLogResponse(a) }),
		total:  resp.Total,
		limit:  resp.Limit,
		offset: resp.Offset,
	}, nil
}

func toLogResponse(a entity.Attempt) OTPLogResponse {
	return OTPLogResponse{
		ID:            a.ID,
		APIKeyID:      a.APIKeyID,
		Recipient:     a.Recipient,
		Channel:       a.Channel.String(),
		Status:        a.Status.String(),
		FailureReason: string(a.FailureReason),
		ExpiresAt:     a.ExpiresAt,
		CreatedAt:     a.CreatedAt,
		SentAt:        a.SentAt,
		DeliveredAt:   a.DeliveredAt,
	}
}

// Usage reports sent counters per key.
// @Summary API usage
// @Tags OTP, Reports
// @Security BearerAuth
// @Produce json
// @Param api_key_id query int false "Only this key"
// @Success 200 {object} router.successResponse{data=UsageResponse} "Usage"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "No API usage record found"
// @Router /api/usage [get]
func (h *HTTPEndpoint) Usage(r *router.Request) (any, error) {
	keyID, err := r.GetQueryInt64("api_key_id")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.Usage(r.Context(), usecase.UsageInput{APIKeyID: keyID})
	if err != nil {
		return nil, err
	}

	return UsageResponse{
		TotalSent: resp.Total,
		Keys: lo.Map(resp.Keys, func(u entity.Usage, _ int) UsageKeyResponse {
			return UsageKeyResponse{
				APIKeyID:  u.APIKeyID,
				KeyPrefix: u.KeyPrefix,
				SentCount: u.SentCount,
				CreatedAt: u.CreatedAt,
			}
		}),
	}, nil
}

// ExportLogs uploads the account's OTP logs as CSV and returns a download link.
// @Summary Export OTP logs
// @Tags OTP, Reports
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body ExportLogsRequest false "Filters"
// @Success 200 {object} router.successResponse{data=ExportLogsResponse} "Export link"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 501 {object} router.errorResponse "Log export is not enabled"
// @Router /api/otp-logs/export [post]
func (h *HTTPEndpoint) ExportLogs(r *router.Request) (any, error) {
	var req ExportLogsRequest
	if err := r.DecodeOptionalBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ExportLogs(r.Context(), usecase.ExportLogsInput{
		APIKeyID: req.APIKeyID,
		Status:   req.Status,
	})
	if err != nil {
		return nil, err
	}

	return ExportLogsResponse{
		URL:       resp.URL,
		Key:       resp.Key,
		Rows:      resp.Rows,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}
