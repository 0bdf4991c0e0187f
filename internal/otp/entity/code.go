package entity

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
)

const (
	// CodeAlphabet drops I and O, which read like 1 and 0.
	CodeAlphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	CodeLength   = 6

	// maxDraws bounds the rejection loop for one code.
	maxDraws = 64

	// rejectFrom is the largest multiple of len(CodeAlphabet) below 1<<16.
	// Words at or above it would bias the low symbols.
	rejectFrom = (1 << 16) / len(CodeAlphabet) * len(CodeAlphabet)
)

var ErrGeneration = errors.New("otp: unable to generate code")

// CodeGenerator draws codes from a random source.
type CodeGenerator struct {
	rand io.Reader
}

// NewCodeGenerator returns a generator over r, or crypto/rand when r is nil.
func NewCodeGenerator(r io.Reader) *CodeGenerator {
	if r == nil {
		r = rand.Reader
	}
	return &CodeGenerator{rand: r}
}

// Generate returns a CodeLength code with every symbol equally likely.
func (g *CodeGenerator) Generate() (string, error) {
	out := make([]byte, 0, CodeLength)
	var word [2]byte

	for draws := 0; len(out) < CodeLength; draws++ {
		if draws >= maxDraws {
			return "", ErrGeneration
		}

		if _, err := io.ReadFull(g.rand, word[:]); err != nil {
			return "", errors.Join(ErrGeneration, err)
		}

		v := int(binary.BigEndian.Uint16(word[:]))
		if v >= rejectFrom {
			continue
		}

		out = append(out, CodeAlphabet[v%len(CodeAlphabet)])
	}

	return string(out), nil
}
