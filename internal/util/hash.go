package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a short content hash used to identify a document
func Fingerprint(data []byte) string {
	hasher := sha256.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))[:16] // Use first 16 chars of the hash
}
