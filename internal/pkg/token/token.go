// Package token generates opaque random identifiers.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// New returns a 64-character hex token derived from 20 bytes of
// cryptographically strong randomness. Tokens are effectively collision-free
// over the lifetime of the system and carry no embedded structure.
func New() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}
