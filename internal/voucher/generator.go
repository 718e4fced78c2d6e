package voucher

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Character set for generated code suffixes. Avoids ambiguous characters
// like O/0, I/1 and l so codes survive being read aloud or printed.
const suffixChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// SuffixLength is the number of random characters in a generated code.
const SuffixLength = 8

// DefaultPrefix is used when the caller supplies neither a code nor a prefix.
const DefaultPrefix = "CRS"

// NewCode derives a fresh voucher code from a prefix and a random suffix.
// An empty prefix falls back to DefaultPrefix. The suffix is drawn from
// crypto/rand; collision handling against existing codes is the caller's
// responsibility (the store's unique index is the final arbiter).
func NewCode(prefix string) (string, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	buffer := make([]byte, SuffixLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	for i := 0; i < SuffixLength; i++ {
		buffer[i] = suffixChars[int(buffer[i])%len(suffixChars)]
	}

	return prefix + "-" + string(buffer), nil
}
