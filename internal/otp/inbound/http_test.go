package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/apikey"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "00112233445566778899aabbccddeeff"

var at = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type stubJWT struct{}

func (stubJWT) Generate(int64, string) (string, error) { return "token", nil }

func (stubJWT) Verify(token string) (jwt.Claims, error) {
	if token != "token" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{AccountID: 1}, nil
}

type stubResolver struct{}

func (stubResolver) ResolveKey(_ context.Context, raw string) (apikey.Principal, error) {
	if raw != testKey {
		return apikey.Principal{}, goerror.NewBusiness("Invalid or inactive API key", goerror.CodeForbidden)
	}
	return apikey.Principal{KeyID: 10, AccountID: 1}, nil
}

type stubUsecase struct {
	sendIn    usecase.SendOTPInput
	verifyIn  usecase.VerifyOTPInput
	logsIn    usecase.ListLogsInput
	sendErr   error
	verifyErr error
}

func (s *stubUsecase) SendOTP(_ context.Context, in usecase.SendOTPInput) (*usecase.SendOTPOutput, error) {
	s.sendIn = in
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	ch, _ := entity.ParseChannel(in.Channel)
	return &usecase.SendOTPOutput{AttemptID: 99, Recipient: in.Recipient, Channel: ch, ExpiresAt: at.Add(entity.CodeTTL)}, nil
}

func (s *stubUsecase) VerifyOTP(_ context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error) {
	s.verifyIn = in
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return &usecase.VerifyOTPOutput{AttemptID: 99, Recipient: in.Recipient, VerifiedAt: at}, nil
}

func (s *stubUsecase) ListLogs(_ context.Context, in usecase.ListLogsInput) (*usecase.ListLogsOutput, error) {
	s.logsIn = in
	return &usecase.ListLogsOutput{
		Attempts: []entity.Attempt{{ID: 5, APIKeyID: 10, Recipient: "a@b.com", Channel: entity.ChannelEmail, Status: entity.StatusSent, Code: "ABC123", CreatedAt: at}},
		Total:    1,
		Limit:    20,
	}, nil
}

func (s *stubUsecase) Usage(context.Context, usecase.UsageInput) (*usecase.UsageOutput, error) {
	return &usecase.UsageOutput{
		Keys:  []entity.Usage{{APIKeyID: 10, KeyPrefix: "00112233", SentCount: 3}, {APIKeyID: 11, KeyPrefix: "ffeeddcc", SentCount: 4}},
		Total: 7,
	}, nil
}

func (s *stubUsecase) ExportLogs(context.Context, usecase.ExportLogsInput) (*usecase.ExportLogsOutput, error) {
	return nil, goerror.NewBusiness("Log export is not enabled", goerror.CodeNotImplemented)
}

func setup(uc *stubUsecase) *router.Router {
	r := router.NewRouter(router.Config{JWT: stubJWT{}, Instrument: instrument.NewNoop()})
	r.UseTenantResolver(stubResolver{})
	RegisterHTTPEndpoint(r, uc)
	return r
}

func serve(t *testing.T, h http.Handler, req *http.Request) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHTTPEndpoint_SendOTP(t *testing.T) {
	// Arrange
	uc := &stubUsecase{}
	req := httptest.NewRequest(http.MethodPost, "/api/send-otp", strings.NewReader(`{"recipient":"a@b.com","channel":"email"}`))
	req.Header.Set(router.HeaderAPIKey, testKey)

	// Act
	code, body := serve(t, setup(uc), req)

	// Assert
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OTP sent successfully", body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "99", data["attempt_id"])
	assert.Equal(t, "email", data["channel"])
	assert.Equal(t, "a@b.com", uc.sendIn.Recipient)
}

func TestHTTPEndpoint_SendOTP_DeliveryFailure(t *testing.T) {
	// Arrange
	uc := &stubUsecase{sendErr: goerror.WithDetails(
		goerror.NewBusiness("Email authentication failed", goerror.CodeDeliveryFailed),
		map[string]any{"reason": "authentication_failed"},
	)}
	req := httptest.NewRequest(http.MethodPost, "/api/send-otp", strings.NewReader(`{"recipient":"a@b.com"}`))
	req.Header.Set(router.HeaderAPIKey, testKey)

	// Act
	code, body := serve(t, setup(uc), req)

	// Assert
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "ERROR_CODE_DELIVERY_FAILED", body["code"])
	assert.Equal(t, "authentication_failed", body["details"].(map[string]any)["reason"])
}

func TestHTTPEndpoint_SendOTPByPath(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		channel string
	}{
		{"keyed get", http.MethodGet, "/api/" + testKey + "/send/a@b.com", "", ""},
		{"keyed post with channel", http.MethodPost, "/api/" + testKey + "/send/a@b.com", `{"channel":"sms"}`, "sms"},
		{"otp prefix post", http.MethodPost, "/api/otp/send/" + testKey + "/a@b.com", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			uc := &stubUsecase{}
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))

			// Act
			code, _ := serve(t, setup(uc), req)

			// Assert
			require.Equal(t, http.StatusOK, code)
			assert.Equal(t, "a@b.com", uc.sendIn.Recipient)
			assert.Equal(t, tt.channel, uc.sendIn.Channel)
		})
	}
}

func TestHTTPEndpoint_VerifyOTP(t *testing.T) {
	// Arrange
	uc := &stubUsecase{}
	req := httptest.NewRequest(http.MethodPost, "/api/verify-otp", strings.NewReader(`{"recipient":"a@b.com","otp":"abc123"}`))
	req.Header.Set(router.HeaderAPIKey, testKey)

	// Act
	code, body := serve(t, setup(uc), req)

	// Assert
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OTP verified successfully", body["message"])
	assert.Equal(t, "abc123", uc.verifyIn.Code)
}

func TestHTTPEndpoint_VerifyOTPByPath_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"expired", goerror.NewBusiness("OTP has expired", goerror.CodeExpired), http.StatusGone},
		{"already used", goerror.NewBusiness("OTP has already been used", goerror.CodeAlreadyUsed), http.StatusConflict},
		{"invalid", goerror.NewBusiness("Invalid OTP", goerror.CodeInvalidCode), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			uc := &stubUsecase{verifyErr: tt.err}
			req := httptest.NewRequest(http.MethodGet, "/api/"+testKey+"/verify/a@b.com/ABC123", nil)

			// Act
			code, _ := serve(t, setup(uc), req)

			// Assert
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, "ABC123", uc.verifyIn.Code)
		})
	}
}

func TestHTTPEndpoint_ListLogs(t *testing.T) {
	// Arrange
	uc := &stubUsecase{}
	req := httptest.NewRequest(http.MethodGet, "/api/otp-logs?api_key_id=10&status=sent&limit=5&offset=2", nil)
	req.Header.Set("Authorization", "Bearer token")

	// Act
	code, body := serve(t, setup(uc), req)

	// Assert
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, usecase.ListLogsInput{APIKeyID: 10, Status: "sent", Limit: 5, Offset: 2}, uc.logsIn)
	logs := body["data"].(map[string]any)["logs"].([]any)
	require.Len(t, logs, 1)
	assert.NotContains(t, logs[0], "code")
	assert.EqualValues(t, 1, body["meta"].(map[string]any)["total"])
}

func TestHTTPEndpoint_Usage(t *testing.T) {
	// Arrange
	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.Header.Set("Authorization", "Bearer token")

	// Act
	code, body := serve(t, setup(&stubUsecase{}), req)

	// Assert
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 7, data["total_sent"])
	keys := data["keys"].([]any)
	require.Len(t, keys, 2)
	assert.EqualValues(t, 3, keys[0].(map[string]any)["number_of_sent_otps"])
}

func TestHTTPEndpoint_ExportLogs_Disabled(t *testing.T) {
	// Arrange
	req := httptest.NewRequest(http.MethodPost, "/api/otp-logs/export", nil)
	req.Header.Set("Authorization", "Bearer token")

	// Act
	code, body := serve(t, setup(&stubUsecase{}), req)

	// Assert
	assert.Equal(t, http.StatusNotImplemented, code)
	assert.Equal(t, "Log export is not enabled", body["message"])
}
