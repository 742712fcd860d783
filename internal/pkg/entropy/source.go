// Package entropy provides the random source behind luck factors in
// production and bot sales. The production path draws from crypto/rand;
// tests inject a seeded source to pin exact outcomes.
package entropy

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
)

// Source yields uniform floats in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

type cryptoSource struct{}

func (cryptoSource) Float64() float64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		// crypto/rand read failures are effectively fatal platform
		// problems; a fixed midpoint keeps the sim running.
		return 0.5
	}
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Crypto returns the production random source.
func Crypto() Source {
	return cryptoSource{}
}

// Seeded returns a deterministic source for tests.
func Seeded(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// Between scales a draw from src into [min, max).
func Between(src Source, min, max float64) float64 {
	return min + src.Float64()*(max-min)
}
