package engine

import (
	"math/rand"
	"time"

	"github.com/andi0b/abacus/internal/fixed"
)

// SamplerConfig controls how the next token is drawn from the logits.
type SamplerConfig struct {
	// Temperature is fixed-point: fixed.Scale is 1.0. Zero selects
	// greedy argmax sampling.
	Temperature int64
	// Seed seeds the random source; 0 means time-based.
	Seed int64
}

// Sampler draws tokens from logits vectors.
type Sampler struct {
	cfg SamplerConfig
	rng *rand.Rand
}

func NewSampler(cfg SamplerConfig) *Sampler {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Sampler{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Next picks the next token id. At temperature 0 it is a deterministic
// argmax; otherwise logits are temperature-scaled, softmaxed, and a
// uniform threshold in [0, Scale) walks the cumulative distribution.
func (s *Sampler) Next(logits []int64) int {
	if s.cfg.Temperature == 0 {
		return argMax(logits)
	}

	scaled := make([]int64, len(logits))
	for i, l := range logits {
		scaled[i] = l * fixed.Scale / s.cfg.Temperature
	}
	probs := fixed.Softmax(scaled)

	threshold := s.rng.Int63n(fixed.Scale)
	var cum int64
	for i, p := range probs {
		cum += p
		if cum > threshold {
			return i
		}
	}
	// Integer rounding can leave the cumulative sum short of the
	// threshold; fall back to the last index.
	return len(probs) - 1
}

// argMax returns the index of the largest logit, breaking ties toward
// the lowest index.
func argMax(logits []int64) int {
	if len(logits) == 0 {
		return 0
	}
	best := 0
	for i, v := range logits {
		if v > logits[best] {
			best = i
		}
	}
	return best
}
