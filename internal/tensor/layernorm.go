package tensor

import (
	"fmt"

	"github.com/andi0b/abacus/internal/fixed"
)

const (
	// layerNormEps is added to the variance before the square root.
	layerNormEps = 100
	// minStd floors the standard deviation at 0.01 to keep the
	// normalization denominator away from zero.
	minStd = 100
)

// LayerNorm normalizes vec to zero mean and unit variance in fixed
// point, then applies the per-element gamma scale and beta shift.
func LayerNorm(vec, gamma, beta []int64) ([]int64, error) {
	n := int64(len(vec))
	if n == 0 {
		return nil, fmt.Errorf("tensor: layer norm of empty vector")
	}
	if len(gamma) != len(vec) || len(beta) != len(vec) {
		return nil, fmt.Errorf("tensor: layer norm param length %d/%d for vector length %d", len(gamma), len(beta), len(vec))
	}

	var sum int64
	for _, v := range vec {
		sum += v
	}
	mean := sum / n

	// Each squared deviation is divided by Scale before summing so the
	// variance stays at fixed-point scale.
	var varSum int64
	for _, v := range vec {
		d := v - mean
		varSum += d * d / fixed.Scale
	}
	variance := varSum / n

	std := fixed.Sqrt(variance + layerNormEps)
	if std < minStd {
		std = minStd
	}

	out := make([]int64, len(vec))
	for i, v := range vec {
		normalized := (v - mean) * fixed.Scale / std
		out[i] = normalized*gamma[i]/fixed.Scale + beta[i]
	}
	return out, nil
}
