package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// PartnerCodeBytes is the entropy of a partner code; the hex form is twice as long
const PartnerCodeBytes = 5

// GeneratePartnerCode returns a random 10 character lowercase hex code
func GeneratePartnerCode() (string, error) {
	buf := make([]byte, PartnerCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
