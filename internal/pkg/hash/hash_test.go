package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcrypt(t *testing.T) {
	// Arrange
	h := NewBcrypt(4, "pepper")

	// Act
	hashed, err := h.Hash("s3cret-pass")

	// Assert
	require.NoError(t, err)
	assert.True(t, h.Verify(string(hashed), "s3cret-pass"))
	assert.False(t, h.Verify(string(hashed), "wrong"))
	assert.False(t, NewBcrypt(4, "other").Verify(string(hashed), "s3cret-pass"))
}

func TestHMACSHA256(t *testing.T) {
	// Arrange
	h := NewHMACSHA256("key")
	payload := "plink_1|order_1|paid|pay_1"

	// Act
	sig := h.Sign(payload)
	hashed, err := h.Hash(payload)

	// Assert
	require.NoError(t, err)
	assert.Len(t, sig, 64)
	assert.Equal(t, sig, string(hashed))
	assert.True(t, h.Verify(sig, payload))
	assert.True(t, h.Verify(strings.ToUpper(sig), payload))
	assert.False(t, h.Verify(sig, payload+"x"))
	assert.False(t, h.Verify("not-hex", payload))
	assert.False(t, NewHMACSHA256("other").Verify(sig, payload))
}

func TestHMACSHA256_KnownVector(t *testing.T) {
	// RFC 4231 test case 2.
	h := NewHMACSHA256("Jefe")

	got := h.Sign("what do ya want for nothing?")

	assert.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", got)
}
