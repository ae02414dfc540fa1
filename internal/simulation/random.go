package simulation

import (
	"math"
	"math/rand"
	"time"
)

// RandomSource yields uniform variates in [0, 1)
type RandomSource interface {
	Float64() float64
}

// NewSeededSource returns a deterministic source for reproducible runs
func NewSeededSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// NewEntropySource returns a clock-seeded source. Not safe for concurrent use; create one
// per simulation.
func NewEntropySource() RandomSource {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// DeriveSeed mixes a base seed with a stream index (splitmix64) so every game in a batch
// gets an independent, reproducible stream.
func DeriveSeed(base int64, stream int) int64 {
	z := uint64(base) + uint64(stream+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}

// normalPair draws two independent standard normal variates with the Box-Muller transform
func normalPair(rng RandomSource) (float64, float64) {
	u1 := rng.Float64()
	for u1 == 0 {
		u1 = rng.Float64()
	}
	u2 := rng.Float64()

	r := math.Sqrt(-2.0 * math.Log(u1))
	theta := 2.0 * math.Pi * u2
	return r * math.Cos(theta), r * math.Sin(theta)
}
