// Generates a small deterministic model directory for local testing.
// Weights come from a linear congruential generator so repeated runs
// produce identical files.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/andi0b/abacus/internal/config"
	"github.com/andi0b/abacus/internal/fixed"
	"github.com/andi0b/abacus/internal/model/modeltest"
)

var (
	outDir    = flag.String("out", "testmodel", "Output directory")
	nEmbd     = flag.Int("n-embd", 4, "Embedding width")
	nHead     = flag.Int("n-head", 2, "Attention heads")
	nLayer    = flag.Int("n-layer", 2, "Transformer layers")
	vocabSize = flag.Int("vocab-size", 256, "Vocabulary size")
	blockSize = flag.Int("block-size", 8, "Context window")
	seed      = flag.Int64("seed", 1, "Weight generator seed")
)

func main() {
	flag.Parse()

	cfg := config.Config{
		NEmbd:     *nEmbd,
		NHead:     *nHead,
		NLayer:    *nLayer,
		VocabSize: *vocabSize,
		BlockSize: *blockSize,
	}
	cfg.HeadDim = cfg.NEmbd / cfg.NHead
	cfg.HiddenDim = 4 * cfg.NEmbd
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	g := lcg{state: *seed}
	overrides := map[string][]int64{
		"wte": g.values(cfg.VocabSize * cfg.NEmbd),
		"wpe": g.values(cfg.BlockSize * cfg.NEmbd),
	}
	for i := 0; i < cfg.NLayer; i++ {
		prefix := fmt.Sprintf("blocks/%d/", i)
		overrides[prefix+"attn_weight"] = g.values(cfg.NEmbd * 3 * cfg.NEmbd)
		overrides[prefix+"attn_proj_weight"] = g.values(cfg.NEmbd * cfg.NEmbd)
		overrides[prefix+"ffn_fc1_weight"] = g.values(cfg.NEmbd * cfg.HiddenDim)
		overrides[prefix+"ffn_fc2_weight"] = g.values(cfg.HiddenDim * cfg.NEmbd)
	}

	if err := modeltest.Write(*outDir, cfg, overrides); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote model to %s (n_embd=%d n_head=%d n_layer=%d vocab=%d block=%d)\n",
		*outDir, cfg.NEmbd, cfg.NHead, cfg.NLayer, cfg.VocabSize, cfg.BlockSize)
}

// lcg produces small weights in [-0.2, 0.2] so fixed-point activations
// stay far from overflow.
type lcg struct {
	state int64
}

func (g *lcg) next() int64 {
	g.state = (g.state*1103515245 + 12345) % (1 << 31)
	if g.state < 0 {
		g.state += 1 << 31
	}
	return g.state
}

func (g *lcg) values(n int) []int64 {
	out := make([]int64, n)
	span := int64(2 * fixed.Scale / 10)
	for i := range out {
		out[i] = g.next()%(2*span+1) - span
	}
	return out
}
