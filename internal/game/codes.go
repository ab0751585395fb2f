package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Session codes avoid the easily-confused characters (0/O, 1/I/L).
const sessionCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const sessionCodeLength = 6

func newSessionCode() string {
	b := make([]byte, sessionCodeLength)
	max := big.NewInt(int64(len(sessionCodeAlphabet)))
	for i := range b {
		n, _ := rand.Int(rand.Reader, max)
		b[i] = sessionCodeAlphabet[n.Int64()]
	}
	return string(b)
}

func newAdminCode() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(10000))
	return fmt.Sprintf("%04d", n.Int64())
}
