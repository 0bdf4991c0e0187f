// Package secret seals small secrets (sender passwords, provider tokens) for
// storage at rest.
//
// Sealed values are bound to a Scope through AES-GCM additional data, so a
// ciphertext copied onto another account's row fails to open. Any failure to
// open is reported as ErrOpen and must be treated as fatal by callers; there is
// no plaintext fallback.
package secret

import "fmt"

// Purpose names what a sealed value is used for.
type Purpose string

// PurposeSenderCredential scopes the secret a tenant uses to authenticate with its delivery provider.
const PurposeSenderCredential Purpose = "sender_credential"

// Scope binds a sealed value to its owner.
type Scope struct {
	AccountID int64
	Purpose   Purpose
}

func (s Scope) canonical() string {
	return fmt.Sprintf("account=%d\npurpose=%s\n", s.AccountID, s.Purpose)
}

// Sealer encrypts and decrypts values for a scope.
type Sealer interface {
	Seal(plaintext []byte, scope Scope) ([]byte, error)
	Open(ciphertext []byte, scope Scope) ([]byte, error)
}

// KeyRing hands out AES-256 keys by version. Current is used for sealing; any
// known version can open.
type KeyRing interface {
	Current() uint16
	Key(version uint16) ([]byte, error)
}
