package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent returns a stable hex digest of content, used to detect
// unchanged drafts across evaluation rounds.
func HashContent(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
