package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andi0b/abacus/internal/engine"
	"github.com/andi0b/abacus/internal/fixed"
	"github.com/andi0b/abacus/internal/logger"
	"github.com/andi0b/abacus/internal/tokenizer"
)

var (
	modelDir    = flag.String("model", "", "Path to model directory")
	prompt      = flag.String("prompt", "Hello world", "Prompt to generate from")
	numTokens   = flag.Int("n", 20, "Number of tokens to generate")
	temperature = flag.Float64("temperature", 0, "Sampling temperature (0 = greedy)")
	seed        = flag.Int64("seed", 0, "Random seed (0 = time-based)")
	metricsAddr = flag.String("metrics", "", "Address to serve Prometheus metrics (empty = disabled)")
	logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat   = flag.String("log-format", "console", "Log format (console, json)")
)

func main() {
	flag.Parse()
	logger.Setup(*logLevel, *logFormat)

	if *modelDir == "" {
		fmt.Fprintln(os.Stderr, "Error: --model flag is required")
		flag.Usage()
		os.Exit(1)
	}

	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			logger.Log.Info("metrics serving", "addr", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				logger.Log.Error("metrics server error", "error", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Log.Info("loading model", "dir", *modelDir)
	e, err := engine.New(*modelDir)
	if err != nil {
		logger.Log.Fatal("failed to load model", "error", err)
	}

	tok := tokenizer.NewByte()
	cfg := e.Model().Config
	if cfg.VocabSize != tok.VocabSize() {
		logger.Log.Warn("vocab size differs from byte tokenizer; decoded output may be lossy",
			"vocab_size", cfg.VocabSize)
	}

	inputTokens := tok.Encode(*prompt)
	if len(inputTokens) == 0 {
		logger.Log.Fatal("prompt encoded to zero tokens")
	}
	logger.Log.Debug("encoded prompt", "tokens", len(inputTokens))

	samplerCfg := engine.SamplerConfig{
		Temperature: int64(*temperature * fixed.Scale),
		Seed:        *seed,
	}

	doneChan := make(chan struct{})
	go func() {
		defer close(doneChan)

		start := time.Now()
		result, err := e.Generate(inputTokens, *numTokens, samplerCfg)
		if err != nil {
			logger.Log.Error("inference error", "error", err)
			return
		}

		duration := time.Since(start)
		generated := len(result) - len(inputTokens)
		logger.Log.Info("inference complete",
			"generated", generated,
			"duration", duration.String(),
			"tokens_per_sec", fmt.Sprintf("%.2f", float64(generated)/duration.Seconds()),
		)

		text, err := tok.Decode(result)
		if err != nil {
			logger.Log.Error("decode error", "error", err)
			return
		}
		fmt.Println(text)
	}()

	select {
	case <-doneChan:
	case sig := <-sigChan:
		logger.Log.Info("received signal, shutting down", "signal", sig.String())
		os.Exit(1)
	}
}
