package engine

import (
	"time"

	"github.com/andi0b/abacus/internal/fixed"
	"github.com/andi0b/abacus/internal/logger"
	"github.com/andi0b/abacus/internal/metrics"
	"github.com/andi0b/abacus/internal/model"
)

// Generate runs the autoregressive loop: forward over the current
// window, sample, append, slide the window. The returned sequence is
// the prompt followed by maxTokens generated tokens.
//
// Every step recomputes the full window from scratch; there is no
// key/value cache across steps, so latency grows with
// tokens_generated x context_length.
func (e *Engine) Generate(prompt []int, maxTokens int, cfg SamplerConfig) ([]int, error) {
	m := e.model.Load()
	if m == nil {
		return nil, model.ErrNotLoaded
	}

	sampler := NewSampler(cfg)
	metrics.RecordSamplingTemperature(float64(cfg.Temperature) / fixed.Scale)

	out := make([]int, len(prompt), len(prompt)+maxTokens)
	copy(out, prompt)

	// The context is a FIFO sliding window over the sequence: when a
	// token is appended past the block size, the oldest one is evicted.
	window := append([]int(nil), prompt...)
	if len(window) > m.Config.BlockSize {
		window = window[len(window)-m.Config.BlockSize:]
	}

	start := time.Now()
	for i := 0; i < maxTokens; i++ {
		logits, err := timedForward(m, window)
		if err != nil {
			return out, err
		}

		next := sampler.Next(logits)
		out = append(out, next)
		window = append(window, next)
		if len(window) > m.Config.BlockSize {
			window = window[1:]
		}
	}

	elapsed := time.Since(start)
	metrics.RecordInference(maxTokens, elapsed)
	logger.Log.Debug("generation complete",
		"prompt_tokens", len(prompt),
		"generated", maxTokens,
		"duration", elapsed.String(),
	)

	return out, nil
}
