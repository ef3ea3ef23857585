// Package config holds the model hyperparameters parsed from a model
// directory's config.txt. A Config is immutable once loaded.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Config describes the transformer's dimensions. HeadDim and HiddenDim
// are derived, never read from disk.
type Config struct {
	NEmbd     int
	NHead     int
	NLayer    int
	VocabSize int
	BlockSize int

	HeadDim   int // NEmbd / NHead
	HiddenDim int // 4 * NEmbd
}

// Parse reads key=value lines into a Config and derives the dependent
// dimensions. Blank lines and lines starting with '#' are skipped;
// unknown keys are ignored so config files can carry trainer metadata.
func Parse(r io.Reader) (Config, error) {
	var c Config

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid value for %s: %w", key, err)
		}

		switch key {
		case "n_embd":
			c.NEmbd = n
		case "n_head":
			c.NHead = n
		case "n_layer":
			c.NLayer = n
		case "vocab_size":
			c.VocabSize = n
		case "block_size":
			c.BlockSize = n
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if c.NHead > 0 {
		c.HeadDim = c.NEmbd / c.NHead
	}
	c.HiddenDim = 4 * c.NEmbd

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load parses the config file at path.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Validate checks that every dimension is usable. A config that fails
// validation marks the whole model as unloaded.
func (c *Config) Validate() error {
	if c.NEmbd <= 0 {
		return fmt.Errorf("invalid n_embd: %d (must be positive)", c.NEmbd)
	}
	if c.NHead <= 0 {
		return fmt.Errorf("invalid n_head: %d (must be positive)", c.NHead)
	}
	if c.NEmbd%c.NHead != 0 {
		return fmt.Errorf("n_embd (%d) not divisible by n_head (%d)", c.NEmbd, c.NHead)
	}
	if c.NLayer <= 0 {
		return fmt.Errorf("invalid n_layer: %d (must be positive)", c.NLayer)
	}
	if c.VocabSize <= 0 {
		return fmt.Errorf("invalid vocab_size: %d (must be positive)", c.VocabSize)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("invalid block_size: %d (must be positive)", c.BlockSize)
	}
	if c.HeadDim > 0 && c.NEmbd != c.NHead*c.HeadDim {
		return fmt.Errorf("head_dim mismatch: %d != n_head(%d) * head_dim(%d)", c.NEmbd, c.NHead, c.HeadDim)
	}
	return nil
}
