package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateVerificationCode returns a uniform random numeric code of the given
// number of digits, leading zeros preserved ("042137" is a valid 6-digit code).
func GenerateVerificationCode(digits int) string {
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		// crypto/rand only fails if the platform entropy source is broken
		panic(err)
	}
	return fmt.Sprintf("%0*d", digits, n)
}
