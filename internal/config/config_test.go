package config

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `# toy model
n_embd=8
n_head=2
n_layer=3
vocab_size=256
block_size=16

trained_steps=5000
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.NEmbd != 8 {
		t.Errorf("expected NEmbd 8, got %d", cfg.NEmbd)
	}
	if cfg.NHead != 2 {
		t.Errorf("expected NHead 2, got %d", cfg.NHead)
	}
	if cfg.NLayer != 3 {
		t.Errorf("expected NLayer 3, got %d", cfg.NLayer)
	}
	if cfg.VocabSize != 256 {
		t.Errorf("expected VocabSize 256, got %d", cfg.VocabSize)
	}
	if cfg.BlockSize != 16 {
		t.Errorf("expected BlockSize 16, got %d", cfg.BlockSize)
	}
	if cfg.HeadDim != 4 {
		t.Errorf("expected derived HeadDim 4, got %d", cfg.HeadDim)
	}
	if cfg.HiddenDim != 32 {
		t.Errorf("expected derived HiddenDim 32, got %d", cfg.HiddenDim)
	}
}

func TestParseInvalidValue(t *testing.T) {
	if _, err := Parse(strings.NewReader("n_embd=eight\n")); err == nil {
		t.Error("expected error for non-integer value")
	}
}

func TestParseMissingKeys(t *testing.T) {
	if _, err := Parse(strings.NewReader("n_embd=8\n")); err == nil {
		t.Error("expected validation error for missing keys")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{NEmbd: 8, NHead: 2, NLayer: 1, VocabSize: 256, BlockSize: 16}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"zero n_embd", func(c *Config) { c.NEmbd = 0 }, true},
		{"zero n_head", func(c *Config) { c.NHead = 0 }, true},
		{"n_embd not divisible by n_head", func(c *Config) { c.NHead = 3 }, true},
		{"zero n_layer", func(c *Config) { c.NLayer = 0 }, true},
		{"zero vocab_size", func(c *Config) { c.VocabSize = 0 }, true},
		{"zero block_size", func(c *Config) { c.BlockSize = 0 }, true},
		{"negative n_embd", func(c *Config) { c.NEmbd = -8 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
