package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andi0b/abacus/internal/fixed"
)

func TestArgMaxBreaksTiesLow(t *testing.T) {
	tests := []struct {
		name   string
		logits []int64
		want   int
	}{
		{"single", []int64{5}, 0},
		{"distinct", []int64{5, 9, 2}, 1},
		{"tie picks lowest index", []int64{3, 9, 9, 2}, 1},
		{"all equal", []int64{7, 7, 7}, 0},
		{"negative", []int64{-30, -10, -20}, 1},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, argMax(tt.logits))
		})
	}
}

func TestSamplerGreedy(t *testing.T) {
	s := NewSampler(SamplerConfig{Temperature: 0})
	for i := 0; i < 10; i++ {
		assert.Equal(t, 2, s.Next([]int64{100, -100, 5000, 0}))
	}
}

func TestSamplerPeakedLogits(t *testing.T) {
	// One logit dominates by far more than the exp clamp range; the
	// softmax puts all mass on it regardless of the threshold drawn.
	s := NewSampler(SamplerConfig{Temperature: fixed.Scale, Seed: 1})
	for i := 0; i < 20; i++ {
		assert.Equal(t, 1, s.Next([]int64{0, 1000000, 0}))
	}
}

func TestSamplerSeedReproducible(t *testing.T) {
	logits := []int64{2000, 1500, 1800, 1700}

	a := NewSampler(SamplerConfig{Temperature: fixed.Scale, Seed: 99})
	b := NewSampler(SamplerConfig{Temperature: fixed.Scale, Seed: 99})
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Next(logits), b.Next(logits))
	}
}

func TestSamplerAlwaysInRange(t *testing.T) {
	logits := []int64{0, 0, 0, 0, 0}
	s := NewSampler(SamplerConfig{Temperature: 5000, Seed: 7})
	for i := 0; i < 100; i++ {
		got := s.Next(logits)
		assert.GreaterOrEqual(t, got, 0)
		assert.Less(t, got, len(logits))
	}
}
