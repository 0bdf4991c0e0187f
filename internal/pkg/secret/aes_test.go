package secret

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func newSealer(t *testing.T, keys ...[]byte) *AESGCM {
	t.Helper()
	ring, err := NewStaticKeyRing(keys...)
	require.NoError(t, err)
	return NewAESGCM(ring)
}

func TestAESGCM_RoundTrip(t *testing.T) {
	// Arrange
	s := newSealer(t, key(1))
	scope := Scope{AccountID: 42, Purpose: PurposeSenderCredential}

	// Act
	sealed, err := s.Seal([]byte("app-password"), scope)
	require.NoError(t, err)
	plain, err := s.Open(sealed, scope)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "app-password", string(plain))
	assert.NotContains(t, string(sealed), "app-password")
}

func TestAESGCM_OpenFailsHard(t *testing.T) {
	s := newSealer(t, key(1))
	scope := Scope{AccountID: 42, Purpose: PurposeSenderCredential}
	sealed, err := s.Seal([]byte("app-password"), scope)
	require.NoError(t, err)

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xff

	tests := []struct {
		name       string
		ciphertext []byte
		scope      Scope
		sealer     *AESGCM
	}{
		{"tampered", tampered, scope, s},
		{"other account", sealed, Scope{AccountID: 43, Purpose: PurposeSenderCredential}, s},
		{"other purpose", sealed, Scope{AccountID: 42, Purpose: "other"}, s},
		{"wrong key", sealed, scope, newSealer(t, key(2))},
		{"truncated", sealed[:10], scope, s},
		{"plaintext stored as is", []byte("app-password-from-legacy-row"), scope, s},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			plain, err := tt.sealer.Open(tt.ciphertext, tt.scope)

			// Assert
			assert.ErrorIs(t, err, ErrOpen)
			assert.Nil(t, plain)
		})
	}
}

func TestAESGCM_KeyRotation(t *testing.T) {
	// Arrange
	scope := Scope{AccountID: 7, Purpose: PurposeSenderCredential}
	old := newSealer(t, key(1))
	sealedOld, err := old.Seal([]byte("secret"), scope)
	require.NoError(t, err)

	rotated := newSealer(t, key(1), key(2))

	// Act
	plain, err := rotated.Open(sealedOld, scope)
	sealedNew, errNew := rotated.Seal([]byte("secret"), scope)

	// Assert
	require.NoError(t, err)
	require.NoError(t, errNew)
	assert.Equal(t, "secret", string(plain))
	assert.Equal(t, []byte{0, 2}, sealedNew[:2])
	_, err = old.Open(sealedNew, scope)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestAESGCM_Misconfigured(t *testing.T) {
	_, err := NewStaticKeyRing(key(1)[:16])
	assert.ErrorIs(t, err, ErrKeyLength)

	_, err = NewStaticKeyRing()
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = newSealer(t, key(1)).Seal(nil, Scope{})
	assert.ErrorIs(t, err, ErrEmpty)
}
