package apikey

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	// Arrange
	src := bytes.NewReader(bytes.Repeat([]byte{0xab}, ByteLength))

	// Act
	raw, err := Generate(src)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ab", ByteLength), raw)
	assert.True(t, WellFormed(raw))
	assert.Equal(t, "abababab", Prefix(raw))
}

func TestGenerate_ShortSource(t *testing.T) {
	_, err := Generate(bytes.NewReader([]byte{1, 2}))
	assert.Error(t, err)
}

func TestWellFormed(t *testing.T) {
	assert.True(t, WellFormed(Normalize(" 0123456789ABCDEF0123456789abcdef ")))
	assert.False(t, WellFormed("0123"))
	assert.False(t, WellFormed(strings.Repeat("z", Length)))
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, Get(ctx))

	ctx = Set(ctx, Principal{KeyID: 1, AccountID: 2})

	require.NotNil(t, Get(ctx))
	assert.Equal(t, Principal{KeyID: 1, AccountID: 2}, *Get(ctx))
}
