package rng

import (
	"context"
	"hash/fnv"
	"math/rand/v2"

	"ratewatch/ports"
)

// SeededAdapter implements ports.RNGPort with PCG streams. Each named stream
// derives its second seed word from the name, so streams for different
// operations are decorrelated while staying reproducible.
type SeededAdapter struct{}

// New creates a new seeded RNG adapter
func New() *SeededAdapter {
	return &SeededAdapter{}
}

var _ ports.RNGPort = (*SeededAdapter)(nil)

// SeededStream creates a deterministic random number generator for a named operation
func (a *SeededAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewPCG(uint64(seed), hashName(name))), nil
}

// Stream creates a deterministic RNG stream for a specific run/stage/key
func (a *SeededAdapter) Stream(ctx context.Context, runID, stageName, key string, baseSeed int64) (*rand.Rand, error) {
	return a.SeededStream(ctx, runID+"|"+stageName+"|"+key, baseSeed)
}

func hashName(name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return h.Sum64()
}
