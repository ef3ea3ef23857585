package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andi0b/abacus/internal/engine"
	"github.com/andi0b/abacus/internal/logger"
	"github.com/andi0b/abacus/internal/monitoring"
)

var (
	modelDir    = flag.String("model", "", "Path to model directory")
	addr        = flag.String("addr", ":11500", "Address to serve the API on")
	monitorAddr = flag.String("monitor", "", "Address for the health/metrics sidecar server (empty = disabled)")
	logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat   = flag.String("log-format", "json", "Log format (console, json)")
)

func main() {
	flag.Parse()
	logger.Setup(*logLevel, *logFormat)

	if *modelDir == "" {
		logger.Log.Fatal("--model flag is required")
	}

	logger.Log.Info("loading model", "dir", *modelDir)
	e, err := engine.New(*modelDir)
	if err != nil {
		logger.Log.Fatal("failed to load model", "error", err)
	}

	s := NewServer(e, *modelDir)

	if *monitorAddr != "" {
		hm := monitoring.NewHealthMonitor(s.engineInfo)
		go func() {
			if err := hm.Start(*monitorAddr); err != nil && err != http.ErrServerClosed {
				logger.Log.Error("health monitor error", "error", err)
			}
		}()
		defer hm.Stop(context.Background())
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    *addr,
		Handler: s.Routes(),
	}

	go func() {
		logger.Log.Info("api serving", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("api server error", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Log.Info("shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("shutdown error", "error", err)
	}
}
