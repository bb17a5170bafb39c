package random

import (
	crypto_rand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

func mustCryptoRandUint64() uint64 {
	var b [8]byte
	if _, err := crypto_rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("Failed to obtain random data: %s", err))
	}
	return binary.LittleEndian.Uint64(b[:])
}

// NewFastSingleThreadedGenerator creates a new SingleThreadedGenerator
// that is not suitable for cryptographic purposes. The generator is
// randomly seeded.
func NewFastSingleThreadedGenerator() SingleThreadedGenerator {
	return rand.New(rand.NewPCG(mustCryptoRandUint64(), mustCryptoRandUint64()))
}

// NewSeededSingleThreadedGenerator creates a new
// SingleThreadedGenerator that yields a deterministic sequence of
// numbers. It is intended to be used by unit tests.
func NewSeededSingleThreadedGenerator(seed uint64) SingleThreadedGenerator {
	return rand.New(rand.NewPCG(seed, seed))
}
