// Package model loads the on-disk model directory into an immutable
// WeightStore. The format is plain text: config.txt with key=value
// hyperparameters and one fixed-point integer per line for every tensor,
// row-major, laid out as
//
//	<dir>/config.txt
//	<dir>/wte.txt, wpe.txt, ln_f_weight.txt, ln_f_bias.txt
//	<dir>/blocks/<layer>/{ln1,attn,attn_proj,ln2,ffn_fc1,ffn_fc2}_{weight,bias}.txt
//
// Every tensor's element count is validated against its declared shape
// at load time, so a malformed model fails here rather than misindexing
// during inference.
package model

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/andi0b/abacus/internal/config"
	"github.com/andi0b/abacus/internal/logger"
	"github.com/andi0b/abacus/internal/metrics"
	"github.com/andi0b/abacus/internal/tensor"
)

// ErrNotLoaded is returned by engine operations before a model has been
// loaded successfully.
var ErrNotLoaded = errors.New("model: not loaded")

// Layer holds one transformer block's weights.
type Layer struct {
	LN1Gamma []int64
	LN1Beta  []int64

	AttnW tensor.Tensor // [n_embd, 3*n_embd] combined QKV projection
	AttnB []int64       // [3*n_embd]
	ProjW tensor.Tensor // [n_embd, n_embd] attention output projection
	ProjB []int64       // [n_embd]

	LN2Gamma []int64
	LN2Beta  []int64

	FC1W tensor.Tensor // [n_embd, hidden_dim]
	FC1B []int64       // [hidden_dim]
	FC2W tensor.Tensor // [hidden_dim, n_embd]
	FC2B []int64       // [n_embd]
}

// Model is the read-only weight store shared by all engine components.
// It is never mutated after Load returns.
type Model struct {
	Config config.Config
	Dir    string

	TokenEmb tensor.Tensor // [vocab_size, n_embd]; also the output projection (weight tying)
	PosEmb   tensor.Tensor // [block_size, n_embd]
	LNFGamma []int64
	LNFBeta  []int64

	Layers []Layer
}

// Load reads a model directory. Any missing file or shape mismatch
// returns an error and the model is considered unloaded.
func Load(dir string) (*Model, error) {
	start := time.Now()

	m, err := load(dir)
	metrics.RecordLoad(time.Since(start), err)
	if err != nil {
		logger.Log.Error("model load failed", "dir", dir, "error", err.Error())
		return nil, err
	}

	logger.Log.Info("model loaded",
		"dir", dir,
		"n_embd", m.Config.NEmbd,
		"n_head", m.Config.NHead,
		"n_layer", m.Config.NLayer,
		"vocab_size", m.Config.VocabSize,
		"block_size", m.Config.BlockSize,
		"duration", time.Since(start).String(),
	)
	return m, nil
}

func load(dir string) (*Model, error) {
	cfg, err := config.Load(filepath.Join(dir, "config.txt"))
	if err != nil {
		return nil, err
	}

	m := &Model{Config: cfg, Dir: dir}

	if m.TokenEmb, err = readTensor(filepath.Join(dir, "wte.txt"), cfg.VocabSize, cfg.NEmbd); err != nil {
		return nil, err
	}
	if m.PosEmb, err = readTensor(filepath.Join(dir, "wpe.txt"), cfg.BlockSize, cfg.NEmbd); err != nil {
		return nil, err
	}
	if m.LNFGamma, err = readVector(filepath.Join(dir, "ln_f_weight.txt"), cfg.NEmbd); err != nil {
		return nil, err
	}
	if m.LNFBeta, err = readVector(filepath.Join(dir, "ln_f_bias.txt"), cfg.NEmbd); err != nil {
		return nil, err
	}

	m.Layers = make([]Layer, cfg.NLayer)
	for i := 0; i < cfg.NLayer; i++ {
		prefix := filepath.Join(dir, "blocks", strconv.Itoa(i))
		l := &m.Layers[i]

		if l.LN1Gamma, err = readVector(filepath.Join(prefix, "ln1_weight.txt"), cfg.NEmbd); err != nil {
			return nil, err
		}
		if l.LN1Beta, err = readVector(filepath.Join(prefix, "ln1_bias.txt"), cfg.NEmbd); err != nil {
			return nil, err
		}
		if l.AttnW, err = readTensor(filepath.Join(prefix, "attn_weight.txt"), cfg.NEmbd, 3*cfg.NEmbd); err != nil {
			return nil, err
		}
		if l.AttnB, err = readVector(filepath.Join(prefix, "attn_bias.txt"), 3*cfg.NEmbd); err != nil {
			return nil, err
		}
		if l.ProjW, err = readTensor(filepath.Join(prefix, "attn_proj_weight.txt"), cfg.NEmbd, cfg.NEmbd); err != nil {
			return nil, err
		}
		if l.ProjB, err = readVector(filepath.Join(prefix, "attn_proj_bias.txt"), cfg.NEmbd); err != nil {
			return nil, err
		}
		if l.LN2Gamma, err = readVector(filepath.Join(prefix, "ln2_weight.txt"), cfg.NEmbd); err != nil {
			return nil, err
		}
		if l.LN2Beta, err = readVector(filepath.Join(prefix, "ln2_bias.txt"), cfg.NEmbd); err != nil {
			return nil, err
		}
		if l.FC1W, err = readTensor(filepath.Join(prefix, "ffn_fc1_weight.txt"), cfg.NEmbd, cfg.HiddenDim); err != nil {
			return nil, err
		}
		if l.FC1B, err = readVector(filepath.Join(prefix, "ffn_fc1_bias.txt"), cfg.HiddenDim); err != nil {
			return nil, err
		}
		if l.FC2W, err = readTensor(filepath.Join(prefix, "ffn_fc2_weight.txt"), cfg.HiddenDim, cfg.NEmbd); err != nil {
			return nil, err
		}
		if l.FC2B, err = readVector(filepath.Join(prefix, "ffn_fc2_bias.txt"), cfg.NEmbd); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// readValues reads one fixed-point integer per line. Blank lines are
// skipped.
func readValues(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	defer f.Close()

	var values []int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("model: %s: %w", path, err)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("model: %s: %w", path, err)
	}
	return values, nil
}

func readVector(path string, n int) ([]int64, error) {
	values, err := readValues(path)
	if err != nil {
		return nil, err
	}
	if len(values) != n {
		return nil, fmt.Errorf("model: %s: %d elements, want %d", path, len(values), n)
	}
	return values, nil
}

func readTensor(path string, rows, cols int) (tensor.Tensor, error) {
	values, err := readValues(path)
	if err != nil {
		return tensor.Tensor{}, err
	}
	t, err := tensor.FromSlice(rows, cols, values)
	if err != nil {
		return tensor.Tensor{}, fmt.Errorf("model: %s: %w", path, err)
	}
	return t, nil
}
