package jwt

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWT(t *testing.T, clk *clock.Frozen) *Symmetric {
	t.Helper()
	j, err := NewHS512(Config{
		Secret:    bytes.Repeat([]byte("k"), 64),
		Issuer:    "otpgate",
		Audiences: []string{"dashboard"},
		Clock:     clk,
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)
	return j
}

func TestSymmetric_GenerateVerify(t *testing.T) {
	// Arrange
	clk := clock.NewFrozen(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	j := newTestJWT(t, clk)

	// Act
	token, err := j.Generate(101, "ops@acme.test")
	require.NoError(t, err)
	claims, err := j.Verify(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(101), claims.AccountID)
	assert.Equal(t, "ops@acme.test", claims.AccountEmail)
	assert.True(t, clk.Now().Add(DefaultTTL).Equal(claims.ExpiresAt.Time))
}

func TestSymmetric_ExpiresAfterOneDay(t *testing.T) {
	// Arrange
	clk := clock.NewFrozen(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	j := newTestJWT(t, clk)
	token, err := j.Generate(101, "ops@acme.test")
	require.NoError(t, err)

	// Act
	clk.Advance(DefaultTTL + time.Second)
	_, err = j.Verify(token)

	// Assert
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSymmetric_RejectsForeignSecret(t *testing.T) {
	clk := clock.NewFrozen(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	token, err := newTestJWT(t, clk).Generate(1, "a@b.c")
	require.NoError(t, err)

	other, err := NewHS512(Config{Secret: bytes.Repeat([]byte("x"), 64), Issuer: "otpgate", Clock: clk, UUID: uid.NewUUID()})
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.Error(t, err)
}

func TestNewHS512_ShortSecret(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short")})
	assert.ErrorIs(t, err, ErrSigningKeyTooShort)
}

func TestAuthContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetAuth(ctx))

	ctx = SetAuth(ctx, Claims{AccountID: 9})
	require.NotNil(t, GetAuth(ctx))
	assert.Equal(t, int64(9), GetAuth(ctx).AccountID)
}
