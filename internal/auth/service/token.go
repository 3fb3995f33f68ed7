package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// tokenBytes is the amount of randomness in a session token (256 bits).
const tokenBytes = 32

// TokenGenerator produces opaque session tokens.
type TokenGenerator func() (string, error)

// NewToken returns a base64url token drawn from crypto/rand. Tokens carry no
// structure callers may parse.
func NewToken() (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// tokenPrefix shortens a token for log output.
func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "..."
}
