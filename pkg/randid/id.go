// Package randid generates short random identifiers.
package randid

import (
	"crypto/rand"
	"math/big"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Generate returns a random lowercase alphanumeric string of length n.
func Generate(n int) string {
	if n <= 0 {
		return ""
	}

	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b)
}
