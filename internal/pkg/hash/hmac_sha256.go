package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HMACSHA256 implements Hash with a keyed SHA-256 digest rendered as lowercase hex.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 creates a new hasher keyed with secret.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	return []byte(s.Sign(str)), nil
}

// Sign returns the hex digest of str.
func (s *HMACSHA256) Sign(str string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(str))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether hashed is the digest of str. Hex case is ignored.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	got, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(hashed)))
	if err != nil {
		return false
	}

	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(str))
	return hmac.Equal(got, h.Sum(nil))
}
