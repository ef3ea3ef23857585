package engine

import (
	"fmt"

	"github.com/andi0b/abacus/internal/model"
	"github.com/andi0b/abacus/internal/tensor"
)

// block applies one pre-norm transformer block: the layer norm is
// applied to each sublayer's input and the sublayer output is added
// back onto the residual stream.
func block(m *model.Model, hidden tensor.Tensor, layer int) (tensor.Tensor, error) {
	l := &m.Layers[layer]
	seqLen := hidden.Rows

	normed := tensor.New(seqLen, m.Config.NEmbd)
	for t := 0; t < seqLen; t++ {
		row, err := tensor.LayerNorm(hidden.Row(t), l.LN1Gamma, l.LN1Beta)
		if err != nil {
			return tensor.Tensor{}, fmt.Errorf("block %d ln1: %w", layer, err)
		}
		copy(normed.Row(t), row)
	}

	attnOut, err := attention(m, normed, layer)
	if err != nil {
		return tensor.Tensor{}, fmt.Errorf("block %d: %w", layer, err)
	}
	residual, err := tensor.Add(hidden, attnOut)
	if err != nil {
		return tensor.Tensor{}, fmt.Errorf("block %d attn residual: %w", layer, err)
	}

	for t := 0; t < seqLen; t++ {
		row, err := tensor.LayerNorm(residual.Row(t), l.LN2Gamma, l.LN2Beta)
		if err != nil {
			return tensor.Tensor{}, fmt.Errorf("block %d ln2: %w", layer, err)
		}
		copy(normed.Row(t), row)
	}

	ffnOut, err := feedForward(m, normed, layer)
	if err != nil {
		return tensor.Tensor{}, fmt.Errorf("block %d: %w", layer, err)
	}
	out, err := tensor.Add(residual, ffnOut)
	if err != nil {
		return tensor.Tensor{}, fmt.Errorf("block %d ffn residual: %w", layer, err)
	}

	return out, nil
}

// forward computes next-token logits for a context. Contexts longer
// than the block size are truncated to the most recent tokens; position
// embeddings index from the start of the truncated window.
func forward(m *model.Model, tokens []int) ([]int64, error) {
	cfg := m.Config

	if len(tokens) == 0 {
		return nil, fmt.Errorf("engine: empty context")
	}
	if len(tokens) > cfg.BlockSize {
		tokens = tokens[len(tokens)-cfg.BlockSize:]
	}

	hidden := tensor.New(len(tokens), cfg.NEmbd)
	for t, tok := range tokens {
		if tok < 0 || tok >= cfg.VocabSize {
			return nil, fmt.Errorf("engine: token %d out of range [0,%d)", tok, cfg.VocabSize)
		}
		row := hidden.Row(t)
		tokEmb := m.TokenEmb.Row(tok)
		posEmb := m.PosEmb.Row(t)
		for i := range row {
			row[i] = tokEmb[i] + posEmb[i]
		}
	}

	var err error
	for layer := 0; layer < cfg.NLayer; layer++ {
		if hidden, err = block(m, hidden, layer); err != nil {
			return nil, err
		}
	}

	// Only the last position feeds next-token prediction.
	last, err := tensor.LayerNorm(hidden.Row(hidden.Rows-1), m.LNFGamma, m.LNFBeta)
	if err != nil {
		return nil, fmt.Errorf("engine: final norm: %w", err)
	}

	// Weight tying: the logit for token v is the dot product of the
	// final hidden state with v's embedding row.
	logits := make([]int64, cfg.VocabSize)
	for v := 0; v < cfg.VocabSize; v++ {
		logits[v] = tensor.Dot(last, m.TokenEmb.Row(v))
	}

	return logits, nil
}
