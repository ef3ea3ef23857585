// Package fixed implements the integer fixed-point arithmetic the
// inference engine is built on. A value v represents the real number
// v/Scale; every multiplication re-divides by Scale exactly once and
// every division re-multiplies by Scale exactly once, so the scale never
// drifts. All intermediates are int64, which tolerates products of two
// O(Scale) values without overflow. Division truncates toward zero.
package fixed

// Scale is the fixed-point scale factor: 1.0 is represented as 10000,
// giving four decimal digits of precision.
const Scale = 10000

const (
	expClamp  = 8 * Scale
	tanhClamp = 4 * Scale

	expTerms   = 15
	sqrtIters  = 20
	sqrtEps    = 2

	geluSqrt2OverPi = 7979 // sqrt(2/pi) * Scale
	geluCubicCoeff  = 447  // 0.044715 * Scale
)

// Mul multiplies two fixed-point values.
func Mul(a, b int64) int64 {
	return a * b / Scale
}

// Div divides two fixed-point values. Returns 0 when b is 0.
func Div(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	return a * Scale / b
}

// Sqrt computes the square root of a fixed-point value by Newton's
// method. Returns 0 for non-positive inputs.
func Sqrt(x int64) int64 {
	if x <= 0 {
		return 0
	}

	guess := x / 2
	if guess < Scale {
		guess = Scale
	}

	for i := 0; i < sqrtIters; i++ {
		prev := guess
		guess = (guess + x*Scale/guess) / 2
		diff := guess - prev
		if diff < 0 {
			diff = -diff
		}
		if diff < sqrtEps {
			break
		}
	}

	return guess
}

// Exp computes the exponential of a fixed-point value via a Taylor
// series on |x|. Inputs are clamped to [-8, 8]: beyond that the result
// is effectively 0 or saturated at exp(8).
func Exp(x int64) int64 {
	if x > expClamp {
		x = expClamp
	}
	if x < -expClamp {
		return 0
	}

	neg := x < 0
	if neg {
		x = -x
	}

	result := int64(Scale)
	term := int64(Scale)
	for i := int64(1); i <= expTerms; i++ {
		term = term * x / (i * Scale)
		result += term
		if term < 1 {
			break
		}
	}

	// exp(-x) = 1/exp(x)
	if neg {
		if result == 0 {
			return 0
		}
		return Scale * Scale / result
	}

	return result
}

// Tanh computes the hyperbolic tangent of a fixed-point value using
// tanh(x) = (e^2x - 1) / (e^2x + 1). Saturates at +-1 beyond |x| > 4.
func Tanh(x int64) int64 {
	if x > tanhClamp {
		return Scale
	}
	if x < -tanhClamp {
		return -Scale
	}

	e := Exp(2 * x)
	denom := e + Scale
	if denom == 0 {
		return Scale
	}

	return (e - Scale) * Scale / denom
}

// Gelu computes the GELU activation via the tanh approximation:
// 0.5 * x * (1 + tanh(sqrt(2/pi) * (x + 0.044715*x^3))).
func Gelu(x int64) int64 {
	xSq := x * x / Scale
	xCu := xSq * x / Scale
	inner := x + geluCubicCoeff*xCu/Scale
	inner = geluSqrt2OverPi * inner / Scale
	half := (Scale + Tanh(inner)) / 2
	return x * half / Scale
}

// Softmax normalizes a fixed-point vector into a distribution summing
// to Scale (up to integer rounding). The maximum element is subtracted
// before exponentiating so large logits cannot overflow. A zero
// exponential sum falls back to a uniform distribution.
func Softmax(vec []int64) []int64 {
	out := make([]int64, len(vec))
	if len(vec) == 0 {
		return out
	}

	maxVal := vec[0]
	for _, v := range vec[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	exps := make([]int64, len(vec))
	var sum int64
	for i, v := range vec {
		e := Exp(v - maxVal)
		exps[i] = e
		sum += e
	}

	if sum == 0 {
		uniform := int64(Scale) / int64(len(vec))
		for i := range out {
			out[i] = uniform
		}
		return out
	}

	for i, e := range exps {
		out[i] = e * Scale / sum
	}
	return out
}
