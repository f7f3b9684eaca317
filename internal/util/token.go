package util

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateToken returns a random hex-encoded string of the given character
// length, for minting opaque bearer tokens server-side (e.g. a tenant's
// admin-issued api_token).
func GenerateToken(length int) (string, error) {
	byteLength := (length + 1) / 2
	raw := make([]byte, byteLength)
	if _, err := rand.Read(raw); err != nil {
		return "", LogError("generating token", err)
	}
	return hex.EncodeToString(raw)[:length], nil
}
