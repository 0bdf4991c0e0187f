package usecase

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipient = "user@example.com"

func sendOne(t *testing.T, h *harness) string {
	t.Helper()
	_, err := h.uc.SendOTP(tenantCtx(testTenant), SendOTPInput{Recipient: recipient})
	require.NoError(t, err)
	return h.email.lastCode()
}

func TestUsecase_VerifyOTP_SingleUse(t *testing.T) {
	// Arrange
	h := newHarness(t)
	code := sendOne(t, h)
	ctx := tenantCtx(testTenant)

	// Act
	first, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Recipient: recipient, Code: "  " + strings.ToLower(code) + " "})
	require.NoError(t, err)
	_, second := h.uc.VerifyOTP(ctx, VerifyOTPInput{Recipient: recipient, Code: code})

	// Assert
	assert.Equal(t, recipient, first.Recipient)
	assert.Equal(t, goerror.CodeAlreadyUsed, goerror.CodeOf(second))
	a := h.repo.only(t)
	assert.Equal(t, entity.StatusDelivered, a.Status)
	require.NotNil(t, a.DeliveredAt)
}

func TestUsecase_VerifyOTP_Expired(t *testing.T) {
	// Arrange
	h := newHarness(t)
	code := sendOne(t, h)
	h.clock.Advance(entity.CodeTTL)
	ctx := tenantCtx(testTenant)

	// Act
	_, err := h.uc.VerifyOTP(ctx, VerifyOTPInput{Recipient: recipient, Code: code})
	_, again := h.uc.VerifyOTP(ctx, VerifyOTPInput{Recipient: recipient, Code: code})

	// Assert
	assert.Equal(t, goerror.CodeExpired, goerror.CodeOf(err))
	assert.Equal(t, goerror.CodeExpired, goerror.CodeOf(again))
	assert.Equal(t, entity.StatusExpired, h.repo.only(t).Status)
}

func TestUsecase_VerifyOTP_Misses(t *testing.T) {
	h := newHarness(t)
	code := sendOne(t, h)
	wrong := "ZZZZZZ"
	if code == wrong {
		wrong = "YYYYYY"
	}

	tests := []struct {
		name string
		in   VerifyOTPInput
		want goerror.Code
	}{
		{"unknown recipient", VerifyOTPInput{Recipient: "nobody@example.com", Code: code}, goerror.CodeNotFound},
		{"wrong code", VerifyOTPInput{Recipient: recipient, Code: wrong}, goerror.CodeInvalidCode},
		{"malformed code", VerifyOTPInput{Recipient: recipient, Code: "12"}, goerror.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.uc.VerifyOTP(tenantCtx(testTenant), tt.in)
			assert.Equal(t, tt.want, goerror.CodeOf(err))
		})
	}

	assert.Equal(t, entity.StatusSent, h.repo.only(t).Status)
}

func TestUsecase_VerifyOTP_ScopedToTenant(t *testing.T) {
	// Arrange
	other := testTenant
	other.ID = 20
	h := newHarness(t, testTenant, other)
	code := sendOne(t, h)

	// Act
	_, err := h.uc.VerifyOTP(tenantCtx(other), VerifyOTPInput{Recipient: recipient, Code: code})

	// Assert
	assert.Equal(t, goerror.CodeNotFound, goerror.CodeOf(err))
	assert.Equal(t, entity.StatusSent, h.repo.only(t).Status)
}

func TestUsecase_VerifyOTP_PendingIsNotVerifiable(t *testing.T) {
	// Arrange
	h := newHarness(t)
	require.NoError(t, h.repo.CreateAttempt(t.Context(), entity.Attempt{
		ID: 1, APIKeyID: testTenant.ID, AccountID: testTenant.AccountID, Recipient: recipient,
		Channel: entity.ChannelEmail, Code: "ABC123", Status: entity.StatusPending,
		ExpiresAt: testNow.Add(entity.CodeTTL), CreatedAt: testNow,
	}))

	// Act
	_, err := h.uc.VerifyOTP(tenantCtx(testTenant), VerifyOTPInput{Recipient: recipient, Code: "ABC123"})

	// Assert
	assert.Equal(t, goerror.CodeInvalidCode, goerror.CodeOf(err))
	assert.Equal(t, entity.StatusPending, h.repo.only(t).Status)
}

func TestUsecase_VerifyOTP_ExpiredPendingIsRetired(t *testing.T) {
	// Arrange
	h := newHarness(t)
	require.NoError(t, h.repo.CreateAttempt(t.Context(), entity.Attempt{
		ID: 1, APIKeyID: testTenant.ID, AccountID: testTenant.AccountID, Recipient: recipient,
		Channel: entity.ChannelEmail, Code: "ABC123", Status: entity.StatusPending,
		ExpiresAt: testNow.Add(entity.CodeTTL), CreatedAt: testNow,
	}))
	h.clock.Advance(entity.CodeTTL + time.Second)

	// Act
	_, err := h.uc.VerifyOTP(tenantCtx(testTenant), VerifyOTPInput{Recipient: recipient, Code: "ABC123"})

	// Assert
	assert.Equal(t, goerror.CodeExpired, goerror.CodeOf(err))
	assert.Equal(t, entity.StatusExpired, h.repo.only(t).Status)
}

func TestUsecase_VerifyOTP_EachLiveAttemptVerifiesOnce(t *testing.T) {
	// Arrange
	h := newHarness(t)
	h.uc.codes = &fixedCodes{codes: []string{"AAAAAA", "BBBBBB"}}
	sendOne(t, h)
	h.clock.Advance(1)
	sendOne(t, h)

	// Act
	_, errOld := h.uc.VerifyOTP(tenantCtx(testTenant), VerifyOTPInput{Recipient: recipient, Code: "AAAAAA"})
	_, errNew := h.uc.VerifyOTP(tenantCtx(testTenant), VerifyOTPInput{Recipient: recipient, Code: "BBBBBB"})

	// Assert
	assert.NoError(t, errOld)
	assert.NoError(t, errNew)
}

func TestUsecase_VerifyOTP_ConcurrentSingleWinner(t *testing.T) {
	// Arrange
	const n = 16
	h := newHarness(t)
	code := sendOne(t, h)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []goerror.Code
	)

	// Act
	for range n {
		wg.Go(func() {
			_, err := h.uc.VerifyOTP(tenantCtx(testTenant), VerifyOTPInput{Recipient: recipient, Code: code})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, goerror.CodeOf(err))
		})
	}
	wg.Wait()

	// Assert
	assert.Equal(t, 1, successes)
	require.Len(t, failures, n-1)
	for _, c := range failures {
		assert.Contains(t, []goerror.Code{goerror.CodeAlreadyUsed, goerror.CodeInvalidCode}, c)
	}
	assert.Equal(t, entity.StatusDelivered, h.repo.only(t).Status)
}
