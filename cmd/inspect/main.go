// Command inspect loads a model directory and prints its configuration
// and tensor shapes, for checking exported weights before serving them.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/andi0b/abacus/internal/logger"
	"github.com/andi0b/abacus/internal/model"
	"github.com/andi0b/abacus/internal/tensor"
)

var modelDir = flag.String("model", "", "Path to model directory")

func main() {
	flag.Parse()
	logger.Setup("warn", "console")

	if *modelDir == "" {
		fmt.Fprintln(os.Stderr, "Error: --model flag is required")
		flag.Usage()
		os.Exit(1)
	}

	m, err := model.Load(*modelDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := m.Config
	fmt.Printf("model: %s\n", m.Dir)
	fmt.Printf("  n_embd:     %d\n", cfg.NEmbd)
	fmt.Printf("  n_head:     %d (head_dim %d)\n", cfg.NHead, cfg.HeadDim)
	fmt.Printf("  n_layer:    %d\n", cfg.NLayer)
	fmt.Printf("  vocab_size: %d\n", cfg.VocabSize)
	fmt.Printf("  block_size: %d\n", cfg.BlockSize)
	fmt.Println()

	total := 0
	total += printTensor("wte", m.TokenEmb)
	total += printTensor("wpe", m.PosEmb)
	total += printVector("ln_f_weight", m.LNFGamma)
	total += printVector("ln_f_bias", m.LNFBeta)

	for i := range m.Layers {
		l := &m.Layers[i]
		prefix := fmt.Sprintf("blocks/%d/", i)
		total += printVector(prefix+"ln1_weight", l.LN1Gamma)
		total += printVector(prefix+"ln1_bias", l.LN1Beta)
		total += printTensor(prefix+"attn_weight", l.AttnW)
		total += printVector(prefix+"attn_bias", l.AttnB)
		total += printTensor(prefix+"attn_proj_weight", l.ProjW)
		total += printVector(prefix+"attn_proj_bias", l.ProjB)
		total += printVector(prefix+"ln2_weight", l.LN2Gamma)
		total += printVector(prefix+"ln2_bias", l.LN2Beta)
		total += printTensor(prefix+"ffn_fc1_weight", l.FC1W)
		total += printVector(prefix+"ffn_fc1_bias", l.FC1B)
		total += printTensor(prefix+"ffn_fc2_weight", l.FC2W)
		total += printVector(prefix+"ffn_fc2_bias", l.FC2B)
	}

	fmt.Printf("\ntotal parameters: %d\n", total)
}

func printTensor(name string, t tensor.Tensor) int {
	fmt.Printf("  %-28s [%d, %d] (%d values)\n", name, t.Rows, t.Cols, len(t.Data))
	return len(t.Data)
}

func printVector(name string, v []int64) int {
	fmt.Printf("  %-28s [%d]\n", name, len(v))
	return len(v)
}
