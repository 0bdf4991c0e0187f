package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Ciphertext layout:
// [0..1]   uint16 key version
// [2..13]  12-byte nonce
// [14..]   gcm.Seal output (ciphertext + tag)
const (
	headerLen = 2
	nonceLen  = 12
	keyLen    = 32
)

var (
	ErrNotConfigured = errors.New("secret: sealer not configured")
	ErrEmpty         = errors.New("secret: plaintext is empty")
	ErrKeyLength     = errors.New("secret: key must be 32 bytes")
	ErrUnknownKey    = errors.New("secret: unknown key version")
	ErrOpen          = errors.New("secret: ciphertext cannot be opened")
)

// AESGCM implements Sealer with AES-256-GCM.
type AESGCM struct {
	keys KeyRing
}

// NewAESGCM returns a sealer backed by keys.
func NewAESGCM(keys KeyRing) *AESGCM {
	return &AESGCM{keys: keys}
}

func (a *AESGCM) aead(version uint16) (cipher.AEAD, error) {
	key, err := a.keys.Key(version)
	if err != nil {
		return nil, err
	}
	if len(key) != keyLen {
		return nil, fmt.Errorf("%w: got %d", ErrKeyLength, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secret: aes init: %w", err)
	}

	return cipher.NewGCM(block)
}

// Seal encrypts plaintext under the current key.
func (a *AESGCM) Seal(plaintext []byte, scope Scope) ([]byte, error) {
	if a == nil || a.keys == nil {
		return nil, ErrNotConfigured
	}
	if len(plaintext) == 0 {
		return nil, ErrEmpty
	}

	version := a.keys.Current()
	gcm, err := a.aead(version)
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerLen+nonceLen, headerLen+nonceLen+len(plaintext)+gcm.Overhead())
	binary.BigEndian.PutUint16(out[:headerLen], version)
	if _, err := io.ReadFull(rand.Reader, out[headerLen:]); err != nil {
		return nil, fmt.Errorf("secret: nonce: %w", err)
	}

	return gcm.Seal(out, out[headerLen:], plaintext, additionalData(scope)), nil
}

// Open decrypts ciphertext produced by Seal for the same scope.
// Truncation, tampering, scope mismatch and wrong keys all yield ErrOpen.
func (a *AESGCM) Open(ciphertext []byte, scope Scope) ([]byte, error) {
	if a == nil || a.keys == nil {
		return nil, ErrNotConfigured
	}
	if len(ciphertext) <= headerLen+nonceLen {
		return nil, ErrOpen
	}

	gcm, err := a.aead(binary.BigEndian.Uint16(ciphertext[:headerLen]))
	if err != nil {
		if errors.Is(err, ErrUnknownKey) {
			return nil, ErrOpen
		}
		return nil, err
	}

	nonce := ciphertext[headerLen : headerLen+nonceLen]
	plain, err := gcm.Open(nil, nonce, ciphertext[headerLen+nonceLen:], additionalData(scope))
	if err != nil {
		return nil, ErrOpen
	}

	return plain, nil
}

func additionalData(s Scope) []byte {
	sum := sha256.Sum256([]byte(s.canonical()))
	return sum[:]
}

// StaticKeyRing holds keys in memory, typically decoded from configuration.
type StaticKeyRing struct {
	current uint16
	keys    map[uint16][]byte
}

// NewStaticKeyRing builds a ring whose current key is keys[len(keys)-1];
// versions are assigned 1..n in order, so older keys can still open old values.
func NewStaticKeyRing(keys ...[]byte) (*StaticKeyRing, error) {
	if len(keys) == 0 {
		return nil, ErrNotConfigured
	}

	ring := &StaticKeyRing{keys: make(map[uint16][]byte, len(keys))}
	for i, k := range keys {
		if len(k) != keyLen {
			return nil, fmt.Errorf("%w: key %d has %d bytes", ErrKeyLength, i+1, len(k))
		}
		ring.keys[uint16(i+1)] = append([]byte(nil), k...)
	}
	ring.current = uint16(len(keys))

	return ring, nil
}

func (r *StaticKeyRing) Current() uint16 {
	return r.current
}

func (r *StaticKeyRing) Key(version uint16) ([]byte, error) {
	k, ok := r.keys[version]
	if !ok {
		return nil, ErrUnknownKey
	}
	return append([]byte(nil), k...), nil
}
