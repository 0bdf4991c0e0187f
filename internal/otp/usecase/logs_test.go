package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountCtx(accountID int64) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{AccountID: accountID, AccountEmail: "owner@acme.test"})
}

func TestUsecase_ListLogs(t *testing.T) {
	// Arrange
	h := newHarness(t)
	sendOne(t, h)
	_, _ = h.uc.SendOTP(tenantCtx(testTenant), SendOTPInput{Recipient: "+15550100", Channel: "sms"})

	// Act
	all, err := h.uc.ListLogs(accountCtx(1), ListLogsInput{Limit: 500})
	require.NoError(t, err)
	failed, err := h.uc.ListLogs(accountCtx(1), ListLogsInput{Status: "failed"})
	require.NoError(t, err)
	foreign, err := h.uc.ListLogs(accountCtx(2), ListLogsInput{})
	require.NoError(t, err)

	// Assert
	assert.Equal(t, int64(2), all.Total)
	assert.Equal(t, defaultLogLimit, all.Limit)
	require.Len(t, failed.Attempts, 1)
	assert.Equal(t, entity.ChannelSMS, failed.Attempts[0].Channel)
	assert.Zero(t, foreign.Total)
}

func TestUsecase_ListLogs_Rejections(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.ListLogs(context.Background(), ListLogsInput{})
	assert.Equal(t, goerror.CodeUnauthorized, goerror.CodeOf(err))

	_, err = h.uc.ListLogs(accountCtx(1), ListLogsInput{Status: "queued"})
	assert.Equal(t, goerror.CodeInvalidInput, goerror.CodeOf(err))
}

func TestUsecase_Usage(t *testing.T) {
	// Arrange
	second := testTenant
	second.ID = 11
	h := newHarness(t, testTenant, second)
	sendOne(t, h)
	sendOne(t, h)

	// Act
	all, err := h.uc.Usage(accountCtx(1), UsageInput{})
	require.NoError(t, err)
	one, err := h.uc.Usage(accountCtx(1), UsageInput{APIKeyID: testTenant.ID})
	require.NoError(t, err)
	_, missing := h.uc.Usage(accountCtx(2), UsageInput{APIKeyID: testTenant.ID})

	// Assert
	assert.Len(t, all.Keys, 2)
	assert.Equal(t, int64(2), all.Total)
	require.Len(t, one.Keys, 1)
	assert.Equal(t, int64(2), one.Keys[0].SentCount)
	assert.True(t, testTenant.CreatedAt.Equal(one.Keys[0].CreatedAt))
	assert.Equal(t, goerror.CodeNotFound, goerror.CodeOf(missing))
}

func TestUsecase_ExportLogs(t *testing.T) {
	// Arrange
	h := newHarness(t)
	h.uc.codes = &fixedCodes{codes: []string{"QWXKZV"}}
	code := sendOne(t, h)

	// Act
	out, err := h.uc.ExportLogs(accountCtx(1), ExportLogsInput{})

	// Assert
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.Key, "exports/1/"))
	assert.True(t, strings.HasSuffix(out.Key, ".csv"))
	assert.Contains(t, out.URL, out.Key)
	assert.Equal(t, 1, out.Rows)
	assert.True(t, testNow.Add(defaultExportTTL).Equal(out.ExpiresAt))

	body := string(h.storage.objects[out.Key])
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(exportHeader, ","), lines[0])
	assert.Contains(t, lines[1], recipient)
	assert.NotContains(t, body, code)
}

func TestUsecase_ExportLogs_Disabled(t *testing.T) {
	h := newHarness(t)
	h.uc.storage = nil

	_, err := h.uc.ExportLogs(accountCtx(1), ExportLogsInput{})

	assert.Equal(t, goerror.CodeNotImplemented, goerror.CodeOf(err))
}
