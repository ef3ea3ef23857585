// Package engine implements the fixed-point transformer forward pass
// and the autoregressive generator on top of an immutable weight store.
// A forward pass is synchronous, deterministic, and runs to completion
// on the calling goroutine; the weight store is swapped atomically on
// reload so concurrent readers are never disturbed.
package engine

import (
	"sync/atomic"
	"time"

	"github.com/andi0b/abacus/internal/logger"
	"github.com/andi0b/abacus/internal/metrics"
	"github.com/andi0b/abacus/internal/model"
)

// Engine owns the current model and exposes the two public operations:
// Forward and Generate.
type Engine struct {
	model atomic.Pointer[model.Model]
}

// New loads the model directory and returns a ready engine.
func New(dir string) (*Engine, error) {
	e := &Engine{}
	if err := e.Reload(dir); err != nil {
		return nil, err
	}
	return e, nil
}

// NewFromModel wraps an already loaded model.
func NewFromModel(m *model.Model) *Engine {
	e := &Engine{}
	e.model.Store(m)
	return e
}

// Reload loads a fresh weight store and swaps it in. In-flight forward
// passes keep the store they started with.
func (e *Engine) Reload(dir string) error {
	m, err := model.Load(dir)
	if err != nil {
		return err
	}
	if e.model.Swap(m) != nil {
		metrics.ModelReloads.Inc()
		logger.Log.Info("model reloaded", "dir", dir)
	}
	return nil
}

// Model returns the current weight store, or nil before a successful
// load.
func (e *Engine) Model() *model.Model {
	return e.model.Load()
}

// Forward computes next-token logits for a token sequence. A context
// longer than the block size is silently truncated to its most recent
// tokens, never rejected.
func (e *Engine) Forward(tokens []int) ([]int64, error) {
	m := e.model.Load()
	if m == nil {
		return nil, model.ErrNotLoaded
	}
	return timedForward(m, tokens)
}

func timedForward(m *model.Model, tokens []int) ([]int64, error) {
	start := time.Now()
	logits, err := forward(m, tokens)
	if err != nil {
		return nil, err
	}

	window := len(tokens)
	if window > m.Config.BlockSize {
		window = m.Config.BlockSize
	}
	metrics.RecordForward(window, time.Since(start))

	return logits, nil
}
