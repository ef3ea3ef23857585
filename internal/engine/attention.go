package engine

import (
	"fmt"

	"github.com/andi0b/abacus/internal/fixed"
	"github.com/andi0b/abacus/internal/model"
	"github.com/andi0b/abacus/internal/tensor"
)

// maskedScore is the sentinel for future positions; softmax drives its
// weight to 0.
const maskedScore = -1000000000

// attention applies multi-head causal self-attention for one layer.
// Position i attends to every position j <= i; j > i is masked. The
// current position is always visible to itself.
func attention(m *model.Model, hidden tensor.Tensor, layer int) (tensor.Tensor, error) {
	cfg := m.Config
	l := &m.Layers[layer]
	seqLen := hidden.Rows

	// Combined QKV projection: each row becomes [q | k | v].
	qkv := tensor.New(seqLen, 3*cfg.NEmbd)
	for t := 0; t < seqLen; t++ {
		row, err := tensor.VecMat(hidden.Row(t), l.AttnW)
		if err != nil {
			return tensor.Tensor{}, fmt.Errorf("attention qkv: %w", err)
		}
		row, err = tensor.AddVec(row, l.AttnB)
		if err != nil {
			return tensor.Tensor{}, fmt.Errorf("attention qkv bias: %w", err)
		}
		copy(qkv.Row(t), row)
	}

	// Scaled dot-product attention divides scores by sqrt(head_dim).
	scale := fixed.Sqrt(int64(cfg.HeadDim) * fixed.Scale)

	concat := tensor.New(seqLen, cfg.NEmbd)
	for h := 0; h < cfg.NHead; h++ {
		off := h * cfg.HeadDim
		for i := 0; i < seqLen; i++ {
			q := qkv.Row(i)[off : off+cfg.HeadDim]

			scores := make([]int64, seqLen)
			for j := 0; j < seqLen; j++ {
				if j > i {
					scores[j] = maskedScore
					continue
				}
				k := qkv.Row(j)[cfg.NEmbd+off : cfg.NEmbd+off+cfg.HeadDim]
				scores[j] = tensor.Dot(q, k) * fixed.Scale / scale
			}

			probs := fixed.Softmax(scores)

			out := concat.Row(i)[off : off+cfg.HeadDim]
			for j := 0; j < seqLen; j++ {
				p := probs[j]
				if p == 0 {
					continue
				}
				v := qkv.Row(j)[2*cfg.NEmbd+off : 2*cfg.NEmbd+off+cfg.HeadDim]
				for d := 0; d < cfg.HeadDim; d++ {
					out[d] += fixed.Mul(p, v[d])
				}
			}
		}
	}

	// Concatenated heads go through the output projection.
	projected := tensor.New(seqLen, cfg.NEmbd)
	for t := 0; t < seqLen; t++ {
		row, err := tensor.VecMat(concat.Row(t), l.ProjW)
		if err != nil {
			return tensor.Tensor{}, fmt.Errorf("attention projection: %w", err)
		}
		row, err = tensor.AddVec(row, l.ProjB)
		if err != nil {
			return tensor.Tensor{}, fmt.Errorf("attention projection bias: %w", err)
		}
		copy(projected.Row(t), row)
	}

	return projected, nil
}
