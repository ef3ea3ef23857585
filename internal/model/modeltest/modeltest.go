// Package modeltest writes synthetic model directories for tests. By
// default every weight is zero and every layer-norm gamma is Scale
// (identity normalization); individual tensors can be overridden.
package modeltest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/andi0b/abacus/internal/config"
	"github.com/andi0b/abacus/internal/fixed"
)

// Write creates a loadable model directory under dir. overrides maps a
// tensor's relative name (e.g. "wte", "blocks/0/attn_weight") to its
// flat row-major values; element counts must match the config's shapes.
func Write(dir string, cfg config.Config, overrides map[string][]int64) error {
	files := map[string]int{
		"wte":         cfg.VocabSize * cfg.NEmbd,
		"wpe":         cfg.BlockSize * cfg.NEmbd,
		"ln_f_weight": cfg.NEmbd,
		"ln_f_bias":   cfg.NEmbd,
	}
	for i := 0; i < cfg.NLayer; i++ {
		prefix := "blocks/" + strconv.Itoa(i) + "/"
		files[prefix+"ln1_weight"] = cfg.NEmbd
		files[prefix+"ln1_bias"] = cfg.NEmbd
		files[prefix+"attn_weight"] = cfg.NEmbd * 3 * cfg.NEmbd
		files[prefix+"attn_bias"] = 3 * cfg.NEmbd
		files[prefix+"attn_proj_weight"] = cfg.NEmbd * cfg.NEmbd
		files[prefix+"attn_proj_bias"] = cfg.NEmbd
		files[prefix+"ln2_weight"] = cfg.NEmbd
		files[prefix+"ln2_bias"] = cfg.NEmbd
		files[prefix+"ffn_fc1_weight"] = cfg.NEmbd * cfg.HiddenDim
		files[prefix+"ffn_fc1_bias"] = cfg.HiddenDim
		files[prefix+"ffn_fc2_weight"] = cfg.HiddenDim * cfg.NEmbd
		files[prefix+"ffn_fc2_bias"] = cfg.NEmbd
	}

	if err := writeConfig(dir, cfg); err != nil {
		return err
	}

	for name, count := range files {
		values, ok := overrides[name]
		if !ok {
			values = defaultValues(name, count)
		}
		if len(values) != count {
			return fmt.Errorf("modeltest: %s has %d values, want %d", name, len(values), count)
		}
		if err := writeTensor(filepath.Join(dir, name+".txt"), values); err != nil {
			return err
		}
	}
	return nil
}

func defaultValues(name string, count int) []int64 {
	values := make([]int64, count)
	// Layer-norm gammas default to 1.0 so normalization passes through.
	if filepath.Base(name) == "ln1_weight" || filepath.Base(name) == "ln2_weight" || name == "ln_f_weight" {
		for i := range values {
			values[i] = fixed.Scale
		}
	}
	return values
}

func writeConfig(dir string, cfg config.Config) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	content := fmt.Sprintf("n_embd=%d\nn_head=%d\nn_layer=%d\nvocab_size=%d\nblock_size=%d\n",
		cfg.NEmbd, cfg.NHead, cfg.NLayer, cfg.VocabSize, cfg.BlockSize)
	return os.WriteFile(filepath.Join(dir, "config.txt"), []byte(content), 0o644)
}

func writeTensor(path string, values []int64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, v := range values {
		if _, err := fmt.Fprintln(f, v); err != nil {
			return err
		}
	}
	return nil
}
