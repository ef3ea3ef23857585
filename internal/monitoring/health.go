// Package monitoring serves health and status endpoints alongside the
// Prometheus metrics handler. It keeps a rolling window of inference
// timings and raises alerts when throughput or latency degrades.
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andi0b/abacus/internal/logger"
	"github.com/andi0b/abacus/internal/metrics"
)

// HealthStatus is the full status document served at /status.
type HealthStatus struct {
	Status      string          `json:"status"`
	Timestamp   time.Time       `json:"timestamp"`
	Uptime      time.Duration   `json:"uptime"`
	System      SystemInfo      `json:"system"`
	Engine      EngineInfo      `json:"engine"`
	Performance PerformanceInfo `json:"performance"`
	Alerts      []Alert         `json:"alerts"`
}

// SystemInfo contains process-level information.
type SystemInfo struct {
	GoVersion      string  `json:"go_version"`
	OS             string  `json:"os"`
	Arch           string  `json:"arch"`
	NumCPU         int     `json:"num_cpu"`
	MemoryMB       int     `json:"memory_mb"`
	MemoryUsedMB   int     `json:"memory_used_mb"`
	MemoryUsagePct float64 `json:"memory_usage_pct"`
}

// EngineInfo describes the currently loaded model.
type EngineInfo struct {
	ModelLoaded bool   `json:"model_loaded"`
	ModelDir    string `json:"model_dir"`
	NumLayers   int    `json:"num_layers"`
	NumHeads    int    `json:"num_heads"`
	EmbedDim    int    `json:"embed_dim"`
	VocabSize   int    `json:"vocab_size"`
	BlockSize   int    `json:"block_size"`
}

// PerformanceInfo summarizes the recent inference history.
type PerformanceInfo struct {
	TokensPerSecond float64   `json:"tokens_per_second"`
	AvgLatencyMs    float64   `json:"avg_latency_ms"`
	P95LatencyMs    float64   `json:"p95_latency_ms"`
	LastInference   time.Time `json:"last_inference"`
}

// Alert is a raised condition, kept until cleared.
type Alert struct {
	Level      string     `json:"level"`     // info, warning, error, critical
	Component  string     `json:"component"` // engine, memory, performance
	Message    string     `json:"message"`
	Timestamp  time.Time  `json:"timestamp"`
	Resolved   bool       `json:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// HealthMonitor serves /health, /status, /metrics and the alert admin
// endpoints. EngineInfoFunc supplies the live model description; when
// nil the engine section reports model_loaded=false.
type HealthMonitor struct {
	startTime      time.Time
	server         *http.Server
	engineInfoFunc func() EngineInfo

	mu            sync.RWMutex
	alerts        []Alert
	lastInference time.Time
	perfHistory   []perfPoint
}

type perfPoint struct {
	timestamp time.Time
	tokens    int
	duration  time.Duration
}

// NewHealthMonitor creates a health monitor. engineInfo may be nil.
func NewHealthMonitor(engineInfo func() EngineInfo) *HealthMonitor {
	return &HealthMonitor{
		startTime:      time.Now(),
		engineInfoFunc: engineInfo,
	}
}

// Start serves the monitoring endpoints until the listener fails or
// Stop is called. It blocks.
func (hm *HealthMonitor) Start(addr string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", hm.handleHealth)
	mux.HandleFunc("/healthz", hm.handleHealth) // Kubernetes compatibility
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/status", hm.handleDetailedStatus)
	mux.HandleFunc("/admin/alerts", hm.handleAlerts)
	mux.HandleFunc("/admin/clear-alerts", hm.handleClearAlerts)

	hm.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Log.Info("health monitor starting", "addr", addr)
	return hm.server.ListenAndServe()
}

// Stop shuts the monitoring server down.
func (hm *HealthMonitor) Stop(ctx context.Context) error {
	if hm.server != nil {
		return hm.server.Shutdown(ctx)
	}
	return nil
}

// RecordInference feeds an inference result into the rolling history
// and the Prometheus counters, and checks the performance thresholds.
func (hm *HealthMonitor) RecordInference(tokens int, duration time.Duration) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	now := time.Now()
	hm.lastInference = now

	metrics.RecordInference(tokens, duration)

	hm.perfHistory = append(hm.perfHistory, perfPoint{
		timestamp: now,
		tokens:    tokens,
		duration:  duration,
	})
	if len(hm.perfHistory) > 1000 {
		hm.perfHistory = hm.perfHistory[1:]
	}

	hm.checkPerformanceAlerts(tokens, duration)
}

// AddAlert records a new alert. The caller holds no lock.
func (hm *HealthMonitor) AddAlert(level, component, message string) {
	hm.mu.Lock()
	hm.addAlertLocked(level, component, message)
	hm.mu.Unlock()
}

func (hm *HealthMonitor) addAlertLocked(level, component, message string) {
	hm.alerts = append(hm.alerts, Alert{
		Level:     level,
		Component: component,
		Message:   message,
		Timestamp: time.Now(),
	})
	if len(hm.alerts) > 100 {
		hm.alerts = hm.alerts[1:]
	}

	logger.Log.Warn("alert raised", "level", level, "component", component, "message", message)
}

// ResolveAlert marks the alert at index as resolved.
func (hm *HealthMonitor) ResolveAlert(index int) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if index >= 0 && index < len(hm.alerts) {
		now := time.Now()
		hm.alerts[index].Resolved = true
		hm.alerts[index].ResolvedAt = &now
	}
}

func (hm *HealthMonitor) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := hm.Status()

	if status.Status == "healthy" {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(map[string]string{
		"status":    status.Status,
		"timestamp": status.Timestamp.Format(time.RFC3339),
	})
}

func (hm *HealthMonitor) handleDetailedStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(hm.Status())
}

func (hm *HealthMonitor) handleAlerts(w http.ResponseWriter, r *http.Request) {
	hm.mu.RLock()
	alerts := make([]Alert, len(hm.alerts))
	copy(alerts, hm.alerts)
	hm.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(alerts)
}

func (hm *HealthMonitor) handleClearAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hm.mu.Lock()
	hm.alerts = hm.alerts[:0]
	hm.mu.Unlock()

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "alerts cleared"})
}

// Status assembles the current health document.
func (hm *HealthMonitor) Status() HealthStatus {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	status := "healthy"
	for _, alert := range hm.alerts {
		if alert.Resolved {
			continue
		}
		if alert.Level == "critical" {
			status = "critical"
			break
		}
		if alert.Level == "error" {
			status = "degraded"
		}
	}

	var engineInfo EngineInfo
	if hm.engineInfoFunc != nil {
		engineInfo = hm.engineInfoFunc()
	}

	return HealthStatus{
		Status:      status,
		Timestamp:   time.Now(),
		Uptime:      time.Since(hm.startTime),
		System:      systemInfo(),
		Engine:      engineInfo,
		Performance: hm.performanceLocked(),
		Alerts:      append([]Alert(nil), hm.alerts...),
	}
}

func systemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemInfo{
		GoVersion:      runtime.Version(),
		OS:             runtime.GOOS,
		Arch:           runtime.GOARCH,
		NumCPU:         runtime.NumCPU(),
		MemoryMB:       int(m.Sys / 1024 / 1024),
		MemoryUsedMB:   int(m.Alloc / 1024 / 1024),
		MemoryUsagePct: float64(m.Alloc) / float64(m.Sys) * 100,
	}
}

func (hm *HealthMonitor) performanceLocked() PerformanceInfo {
	if len(hm.perfHistory) == 0 {
		return PerformanceInfo{LastInference: hm.lastInference}
	}

	var totalTokens int
	var totalDuration time.Duration
	latencies := make([]float64, 0, len(hm.perfHistory))

	for _, point := range hm.perfHistory {
		totalTokens += point.tokens
		totalDuration += point.duration
		latencies = append(latencies, float64(point.duration.Nanoseconds())/1e6)
	}

	for i := range latencies {
		for j := i + 1; j < len(latencies); j++ {
			if latencies[i] > latencies[j] {
				latencies[i], latencies[j] = latencies[j], latencies[i]
			}
		}
	}
	p95Index := int(float64(len(latencies)) * 0.95)
	if p95Index >= len(latencies) {
		p95Index = len(latencies) - 1
	}

	info := PerformanceInfo{
		AvgLatencyMs:  float64(totalDuration.Nanoseconds()) / float64(len(hm.perfHistory)) / 1e6,
		P95LatencyMs:  latencies[p95Index],
		LastInference: hm.lastInference,
	}
	if totalDuration > 0 {
		info.TokensPerSecond = float64(totalTokens) / totalDuration.Seconds()
	}
	return info
}

func (hm *HealthMonitor) checkPerformanceAlerts(tokens int, duration time.Duration) {
	if duration > 0 {
		tokensPerSecond := float64(tokens) / duration.Seconds()
		if tokensPerSecond < 1.0 {
			hm.addAlertLocked("warning", "performance",
				fmt.Sprintf("Low throughput: %.2f tokens/sec", tokensPerSecond))
		}
	}

	latencyMs := float64(duration.Nanoseconds()) / 1e6
	if latencyMs > 5000 {
		hm.addAlertLocked("error", "performance",
			fmt.Sprintf("High latency: %.2f ms", latencyMs))
	}
}
