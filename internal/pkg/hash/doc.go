// Package hash provides helpers for hashing and verifying secrets.
//
// Bcrypt is used for account passwords. HMACSHA256 is used where the digest
// must be deterministic: API key fingerprints (so a presented key can be looked
// up by its digest) and signed payment callbacks.
package hash
