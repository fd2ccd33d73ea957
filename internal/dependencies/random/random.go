package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Random provides random number generation that can be mocked for testing
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int
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
	result, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("random: crypto/rand failed: %v", err))
	}
	return int(result.Int64())
}

// Digits returns a uniformly random string of n decimal digits, leading
// zeros included
func Digits(r Random, n int) string {
	limit := 1
	for i := 0; i < n; i++ {
		limit *= 10
	}
	return fmt.Sprintf("%0*d", n, r.Intn(limit))
}
