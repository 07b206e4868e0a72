// Package idutil generates opaque identifiers for sessions and stored
// results, over a fixed, documented alphabet.
package idutil

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Alphabet is every character idutil.New can produce: lowercase hex
// digits plus the hyphen used as a group separator. Callers that need to
// validate an id against the alphabet this package produces should test
// against exactly this set.
const Alphabet = "0123456789abcdef-"

// New returns a random, UUID-v4-shaped but non-RFC identifier: 32 lower
// hex characters grouped with hyphens (8-4-4-4-12). It is not a real
// UUID — there is no version/variant bit twiddling — it only borrows the
// grouping for readability, since nothing in the engine requires RFC 4122
// compliance, only stable uniqueness and a pinned alphabet.
func New() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable; fall back to
		// the ungrouped hex of the buffer rather than panicking in a
		// library function. The buffer may be unfilled, so this value is
		// not guaranteed unique.
		return hex.EncodeToString(b[:])
	}
	s := hex.EncodeToString(b[:])
	return fmt.Sprintf("%s-%s-%s-%s-%s", s[0:8], s[8:12], s[12:16], s[16:20], s[20:32])
}
