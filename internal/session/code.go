package session

import (
	"crypto/rand"
	"math/big"
)

// Ambiguous characters (0/O, 1/I/L) are excluded so the code survives being
// read out loud or copied from a projector.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// NewCode returns a short human-enterable code of length n.
func NewCode(n int) (string, error) {
	if n <= 0 {
		n = 6
	}
	buf := make([]byte, n)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
