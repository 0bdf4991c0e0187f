package entity

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constReader byte

func (c constReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(c)
	}
	return len(p), nil
}

func TestCodeGenerator_ShapeAndAlphabet(t *testing.T) {
	gen := NewCodeGenerator(nil)

	for range 1000 {
		code, err := gen.Generate()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(CodeAlphabet, r), "unexpected symbol %q", r)
		}
		assert.NotContains(t, code, "I")
		assert.NotContains(t, code, "O")
	}
}

func TestCodeGenerator_Uniform(t *testing.T) {
	// Arrange
	const trials = 10000
	gen := NewCodeGenerator(nil)
	counts := make(map[rune]int, len(CodeAlphabet))

	// Act
	for range trials {
		code, err := gen.Generate()
		require.NoError(t, err)
		for _, r := range code {
			counts[r]++
		}
	}

	// Assert
	expected := float64(trials*CodeLength) / float64(len(CodeAlphabet))
	var chi2 float64
	for _, r := range CodeAlphabet {
		d := float64(counts[r]) - expected
		chi2 += d * d / expected
	}
	// 33 degrees of freedom; 70 sits well past the 0.1% tail.
	assert.Less(t, chi2, 70.0)
}

func TestCodeGenerator_RejectsBiasedWords(t *testing.T) {
	// Arrange
	src := bytes.NewReader([]byte{
		0xFF, 0xFF, // 65535 rejected
		0xFF, 0xEE, // 65518 rejected
		0xFF, 0xED, // 65517 -> 33 -> Z
		0x00, 0x00,
		0x00, 0x01,
		0x00, 0x22, // 34 -> 0
		0x00, 0x23,
		0x00, 0x0A,
	})
	gen := NewCodeGenerator(src)

	// Act
	code, err := gen.Generate()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Z0101A", code)
}

func TestCodeGenerator_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  func() *CodeGenerator
	}{
		{"draw cap", func() *CodeGenerator { return NewCodeGenerator(constReader(0xFF)) }},
		{"read error", func() *CodeGenerator { return NewCodeGenerator(iotest.ErrReader(errors.New("entropy gone"))) }},
		{"short source", func() *CodeGenerator { return NewCodeGenerator(bytes.NewReader([]byte{0x00, 0x01, 0x00})) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := tt.src().Generate()

			assert.Empty(t, code)
			assert.ErrorIs(t, err, ErrGeneration)
		})
	}
}
