// Package code generates and validates the short join codes players type
// to enter a lobby.
package code

import (
	"crypto/rand"
	"strings"
)

// Alphabet is the 32-symbol code alphabet. 0, O, 1 and I are excluded
// because the codes are read aloud and typed by hand.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length of every join code.
const Length = 6

// Generate returns a fresh 6-character join code, uniformly sampled from
// Alphabet. Generation alone does not guarantee uniqueness; the lifecycle
// manager retries against the store's uniqueness constraint.
func Generate() string {
	var buf [Length]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand only fails if the OS entropy source is broken
		panic(err)
	}
	for i, b := range buf {
		// 32 symbols divide 256 evenly, so masking stays uniform
		buf[i] = Alphabet[b&31]
	}
	return string(buf[:])
}

// Normalize trims whitespace and uppercases a user-supplied code.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Valid reports whether s has the exact shape of a join code.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(Alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
