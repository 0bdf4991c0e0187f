// Package jwt issues and verifies the account session tokens used by the
// dashboard endpoints (API keys, logs, usage, billing).
//
// Tokens are HS512 and carry the account id and email; the claims of an
// authenticated request are stored in its context with SetAuth.
package jwt
