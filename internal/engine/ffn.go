package engine

import (
	"fmt"

	"github.com/andi0b/abacus/internal/fixed"
	"github.com/andi0b/abacus/internal/model"
	"github.com/andi0b/abacus/internal/tensor"
)

// feedForward applies one layer's two-layer perceptron: expand to
// hidden_dim, GELU, project back. Every linear has an additive bias.
func feedForward(m *model.Model, hidden tensor.Tensor, layer int) (tensor.Tensor, error) {
	l := &m.Layers[layer]

	out := tensor.New(hidden.Rows, m.Config.NEmbd)
	for t := 0; t < hidden.Rows; t++ {
		mid, err := tensor.VecMat(hidden.Row(t), l.FC1W)
		if err != nil {
			return tensor.Tensor{}, fmt.Errorf("ffn fc1: %w", err)
		}
		mid, err = tensor.AddVec(mid, l.FC1B)
		if err != nil {
			return tensor.Tensor{}, fmt.Errorf("ffn fc1 bias: %w", err)
		}

		for i, v := range mid {
			mid[i] = fixed.Gelu(v)
		}

		row, err := tensor.VecMat(mid, l.FC2W)
		if err != nil {
			return tensor.Tensor{}, fmt.Errorf("ffn fc2: %w", err)
		}
		row, err = tensor.AddVec(row, l.FC2B)
		if err != nil {
			return tensor.Tensor{}, fmt.Errorf("ffn fc2 bias: %w", err)
		}
		copy(out.Row(t), row)
	}

	return out, nil
}
