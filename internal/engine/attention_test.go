package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andi0b/abacus/internal/config"
	"github.com/andi0b/abacus/internal/fixed"
	"github.com/andi0b/abacus/internal/model"
	"github.com/andi0b/abacus/internal/model/modeltest"
	"github.com/andi0b/abacus/internal/tensor"
)

// identityAttnModel wires the value projection and output projection to
// identity matrices while query and key stay zero: attention scores are
// all equal, so each position receives the plain average of the visible
// values. That makes the causal mask directly observable.
func identityAttnModel(t *testing.T) *model.Model {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{NEmbd: 2, NHead: 1, NLayer: 1, VocabSize: 4, BlockSize: 4, HeadDim: 2, HiddenDim: 8}
	require.NoError(t, modeltest.Write(dir, cfg, map[string][]int64{
		// Rows are input dims, columns are [q | k | v]; v is identity.
		"blocks/0/attn_weight": {
			0, 0, 0, 0, fixed.Scale, 0,
			0, 0, 0, 0, 0, fixed.Scale,
		},
		"blocks/0/attn_proj_weight": {
			fixed.Scale, 0,
			0, fixed.Scale,
		},
	}))

	m, err := model.Load(dir)
	require.NoError(t, err)
	return m
}

func TestAttentionCausalMask(t *testing.T) {
	m := identityAttnModel(t)

	hidden, err := tensor.FromSlice(2, 2, []int64{
		1111, 2222,
		3333, 4444,
	})
	require.NoError(t, err)

	out, err := attention(m, hidden, 0)
	require.NoError(t, err)

	// Position 0 must only see itself.
	assert.Equal(t, []int64{1111, 2222}, out.Row(0))
	// Position 1 sees both rows with equal weight: the average.
	assert.Equal(t, []int64{2221, 3333}, out.Row(1))
}

func TestAttentionFirstRowIndependentOfSuffix(t *testing.T) {
	m := identityAttnModel(t)

	full, err := tensor.FromSlice(2, 2, []int64{
		1111, 2222,
		-5000, 9000,
	})
	require.NoError(t, err)
	single, err := tensor.FromSlice(1, 2, []int64{1111, 2222})
	require.NoError(t, err)

	fullOut, err := attention(m, full, 0)
	require.NoError(t, err)
	singleOut, err := attention(m, single, 0)
	require.NoError(t, err)

	assert.Equal(t, singleOut.Row(0), fullOut.Row(0),
		"future tokens must not change an earlier position's output")
}
