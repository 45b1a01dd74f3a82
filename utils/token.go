package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateToken returns a cryptographically random hex string of the
// requested length. Used for session tokens, activation and password
// reset tokens, and attachment filenames; the tokens are opaque and
// carry no embedded structure.
func GenerateToken(length int) string {
	buf := make([]byte, (length+1)/2)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the OS entropy source is gone;
		// there is no sane way to continue issuing credentials.
		panic(err)
	}
	return hex.EncodeToString(buf)[:length]
}
