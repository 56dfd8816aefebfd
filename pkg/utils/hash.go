package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint creates a stable SHA-256 hex digest of the given parts
func Fingerprint(parts ...string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(parts, "\x1f")))

	return hex.EncodeToString(h.Sum(nil))
}
