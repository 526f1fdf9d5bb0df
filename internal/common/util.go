package common

import (
	"crypto/rand"
	"encoding/hex"
)

// TokenBytes is the entropy of refresh and password-reset tokens.
const TokenBytes = 32

// NewToken returns n random bytes hex-encoded, for opaque bearer tokens.
func NewToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WipeByteArray zeroes b. Passwords read from the terminal go through it
// once they have been copied into a request.
func WipeByteArray(b []byte) {
	clear(b)
}
