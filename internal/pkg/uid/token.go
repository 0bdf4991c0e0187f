package uid

import (
	"crypto/rand"
	"encoding/hex"
	"io"
)

// HexToken generates random secrets rendered as lowercase hex.
type HexToken struct {
	size   int
	reader io.Reader
}

// NewHexToken returns a generator of size random bytes (2*size hex characters).
func NewHexToken(size int) *HexToken {
	return &HexToken{size: size, reader: rand.Reader}
}

// Generate returns a fresh token. It fails only when the system random source does.
func (h *HexToken) Generate() (string, error) {
	b := make([]byte, h.size)
	if _, err := io.ReadFull(h.reader, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
