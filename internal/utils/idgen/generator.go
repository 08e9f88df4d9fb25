package idgen

import (
	"crypto/rand"
	"fmt"
)

const (
	charset = "0123456789abcdefghijklmnopqrstuvwxyz"

	// SessionPrefix tags fan-out session IDs.
	SessionPrefix = "sess"
	sessionLength = 24
)

// GenerateSecureID returns prefix_<length random chars from [0-9a-z]>.
func GenerateSecureID(prefix string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("id length must be positive, got %d", length)
	}
	// Rejection sampling keeps the distribution uniform over the charset.
	const limit = 256 - 256%len(charset)
	encoded := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(encoded) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			encoded = append(encoded, charset[int(b)%len(charset)])
			if len(encoded) == length {
				break
			}
		}
	}
	return fmt.Sprintf("%s_%s", prefix, string(encoded)), nil
}

// NewSessionID returns a fresh fan-out session ID.
func NewSessionID() (string, error) {
	return GenerateSecureID(SessionPrefix, sessionLength)
}
