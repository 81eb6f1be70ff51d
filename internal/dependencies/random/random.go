package random

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
)

// Random provides random number generation that can be mocked for
// testing. Board generation does NOT use this interface: boards are
// built from an explicit seed so that independent clients reproduce
// them exactly.
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int

	// Int63 returns a non-negative random 63-bit integer. Used for
	// minting board seeds.
	Int63() int64

	// Digits generates a random numeric string of the given length,
	// zero-padded. Used for room codes.
	Digits(length int) string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Intn returns a cryptographically random int in [0, n)
func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	max := big.NewInt(int64(n))
	result, err := rand.Int(rand.Reader, max)
	if err != nil {
		// Fall back to 0 on error (should never happen with crypto/rand)
		return 0
	}
	return int(result.Int64())
}

// Int63 returns a cryptographically random non-negative 63-bit integer
func (r *CryptoRandom) Int63() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(buf[:]) >> 1)
}

// Digits generates a random numeric string of the given length
func (r *CryptoRandom) Digits(length int) string {
	if length <= 0 {
		return ""
	}
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = byte('0' + r.Intn(10))
	}
	return string(result)
}
