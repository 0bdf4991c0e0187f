// Package apikey defines tenant API keys: their wire format, how they are
// fingerprinted for storage, and how an authenticated tenant travels in a
// request context.
package apikey

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"strings"
)

const (
	// ByteLength is the amount of entropy in a key; the wire form is twice as long in hex.
	ByteLength = 16
	// Length is the number of hex characters of a key.
	Length = ByteLength * 2
	// PrefixLength is how many leading characters are kept in clear for display.
	PrefixLength = 8
)

// Principal is the tenant an API-key authenticated request acts for.
type Principal struct {
	KeyID     int64
	AccountID int64
}

// Resolver turns a presented raw key into the tenant it belongs to. It returns
// a goerror business error when the key is unknown or inactive.
type Resolver interface {
	ResolveKey(ctx context.Context, raw string) (Principal, error)
}

type principalKey struct{}

// Set stores p in ctx.
func Set(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// Get returns the tenant stored in ctx, or nil.
func Get(ctx context.Context) *Principal {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok {
		return nil
	}
	return &p
}

// Generate returns a new raw key read from r (crypto/rand when nil).
func Generate(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}

	b := make([]byte, ByteLength)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// Normalize trims and lowercases a presented key.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// WellFormed reports whether raw has the shape of a key. It is a cheap check
// done before touching storage.
func WellFormed(raw string) bool {
	if len(raw) != Length {
		return false
	}
	_, err := hex.DecodeString(raw)
	return err == nil
}

// Prefix returns the display prefix of a key.
func Prefix(raw string) string {
	if len(raw) < PrefixLength {
		return raw
	}
	return raw[:PrefixLength]
}
