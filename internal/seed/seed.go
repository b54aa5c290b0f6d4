// Package seed issues the per-session seed every procedural visual is derived from.
package seed

import (
	"crypto/rand"
	"encoding/hex"
	mrand "math/rand/v2"
)

// Length is the number of hex characters in a seed.
const Length = 32

const alphabet = "0123456789abcdef"

// New returns a fresh 32-character lowercase hex seed.
// It never fails: if the system entropy source is unavailable the seed
// falls back to math/rand, which is good enough for decoration.
func New() string {
	bytes := make([]byte, Length/2)
	if _, err := rand.Read(bytes); err != nil {
		b := make([]byte, Length)
		for i := range b {
			b[i] = alphabet[mrand.IntN(len(alphabet))]
		}
		return string(b)
	}
	return hex.EncodeToString(bytes)
}

// Valid reports whether s looks like a seed produced by New.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Label is the human readable text shown in the seed display element.
func Label(s string) string {
	return "Seed: " + s
}
