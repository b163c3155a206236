package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SumSHA256 returns the SHA-256 checksum of the provided data.
func SumSHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ContentHash returns the hex SHA-256 of text with surrounding whitespace
// trimmed and inner whitespace runs collapsed, so trivially reformatted
// duplicates hash the same.
func ContentHash(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	sum := SumSHA256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
