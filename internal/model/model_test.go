package model_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andi0b/abacus/internal/config"
	"github.com/andi0b/abacus/internal/fixed"
	"github.com/andi0b/abacus/internal/model"
	"github.com/andi0b/abacus/internal/model/modeltest"
)

func toyConfig() config.Config {
	return config.Config{NEmbd: 4, NHead: 2, NLayer: 2, VocabSize: 8, BlockSize: 4, HeadDim: 2, HiddenDim: 16}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := toyConfig()
	require.NoError(t, modeltest.Write(dir, cfg, nil))

	m, err := model.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, cfg.NEmbd, m.Config.NEmbd)
	assert.Equal(t, cfg.HiddenDim, m.Config.HiddenDim)
	assert.Len(t, m.Layers, cfg.NLayer)

	assert.Equal(t, cfg.VocabSize, m.TokenEmb.Rows)
	assert.Equal(t, cfg.NEmbd, m.TokenEmb.Cols)
	assert.Equal(t, cfg.BlockSize, m.PosEmb.Rows)
	assert.Len(t, m.LNFGamma, cfg.NEmbd)
	assert.EqualValues(t, fixed.Scale, m.LNFGamma[0])

	l := m.Layers[1]
	assert.Equal(t, cfg.NEmbd, l.AttnW.Rows)
	assert.Equal(t, 3*cfg.NEmbd, l.AttnW.Cols)
	assert.Len(t, l.AttnB, 3*cfg.NEmbd)
	assert.Equal(t, cfg.HiddenDim, l.FC2W.Rows)
	assert.Len(t, l.FC1B, cfg.HiddenDim)
}

func TestLoadMissingConfig(t *testing.T) {
	_, err := model.Load(t.TempDir())
	assert.Error(t, err)
}

func TestLoadMissingTensor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, modeltest.Write(dir, toyConfig(), nil))
	require.NoError(t, os.Remove(filepath.Join(dir, "blocks", "1", "ffn_fc2_bias.txt")))

	_, err := model.Load(dir)
	assert.Error(t, err)
}

func TestLoadShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, modeltest.Write(dir, toyConfig(), nil))

	// Truncate wte to fewer elements than vocab_size*n_embd.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wte.txt"), []byte("1\n2\n3\n"), 0o644))

	_, err := model.Load(dir)
	assert.ErrorContains(t, err, "wte.txt")
}

func TestLoadBadValue(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, modeltest.Write(dir, toyConfig(), nil))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ln_f_bias.txt"), []byte("0\n0\nnot-a-number\n0\n"), 0o644))

	_, err := model.Load(dir)
	assert.Error(t, err)
}

func TestLoadHeadMismatch(t *testing.T) {
	dir := t.TempDir()
	cfg := toyConfig()
	require.NoError(t, modeltest.Write(dir, cfg, nil))

	// Rewrite the config with n_head that does not divide n_embd.
	content := "n_embd=4\nn_head=3\nn_layer=2\nvocab_size=8\nblock_size=4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.txt"), []byte(content), 0o644))

	_, err := model.Load(dir)
	assert.ErrorContains(t, err, "divisible")
}
