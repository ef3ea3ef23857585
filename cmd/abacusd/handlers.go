package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andi0b/abacus/internal/engine"
	"github.com/andi0b/abacus/internal/fixed"
	"github.com/andi0b/abacus/internal/logger"
	"github.com/andi0b/abacus/internal/metrics"
	"github.com/andi0b/abacus/internal/monitoring"
	"github.com/andi0b/abacus/internal/tokenizer"
)

// Server wires the engine into the HTTP API.
type Server struct {
	engine   *engine.Engine
	tok      *tokenizer.Byte
	modelDir string
}

func NewServer(e *engine.Engine, modelDir string) *Server {
	return &Server{
		engine:   e,
		tok:      tokenizer.NewByte(),
		modelDir: modelDir,
	}
}

// Routes builds the gin router for the API.
func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "abacus is running") })
	r.GET("/health", s.HealthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/api/generate", s.GenerateHandler)
	r.POST("/api/reload", s.ReloadHandler)

	return r
}

// GenerateRequest is the body of POST /api/generate. Temperature is a
// real number; 0 selects greedy decoding.
type GenerateRequest struct {
	Prompt      string  `json:"prompt" binding:"required"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Seed        int64   `json:"seed"`
}

// GenerateResponse is the body of a successful generation.
type GenerateResponse struct {
	ID              string  `json:"id"`
	Text            string  `json:"text"`
	TokensGenerated int     `json:"tokens_generated"`
	TokensPerSec    float64 `json:"tokens_per_sec"`
}

func (s *Server) GenerateHandler(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.RecordGenerateRequest("bad_request")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = 20
	}
	if req.Temperature < 0 {
		metrics.RecordGenerateRequest("bad_request")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "temperature must be >= 0"})
		return
	}

	prompt := s.tok.Encode(req.Prompt)
	if len(prompt) == 0 {
		metrics.RecordGenerateRequest("bad_request")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "prompt must not be empty"})
		return
	}

	start := time.Now()
	result, err := s.engine.Generate(prompt, req.MaxTokens, engine.SamplerConfig{
		Temperature: int64(req.Temperature * fixed.Scale),
		Seed:        req.Seed,
	})
	if err != nil {
		metrics.RecordGenerateRequest("error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	duration := time.Since(start)

	text, err := s.tok.Decode(result)
	if err != nil {
		metrics.RecordGenerateRequest("error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	generated := len(result) - len(prompt)
	metrics.RecordGenerateRequest("ok")
	c.JSON(http.StatusOK, GenerateResponse{
		ID:              uuid.NewString(),
		Text:            text,
		TokensGenerated: generated,
		TokensPerSec:    float64(generated) / duration.Seconds(),
	})
}

// ReloadRequest optionally names a new model directory; when empty the
// current directory is re-read in place.
type ReloadRequest struct {
	Dir string `json:"dir"`
}

func (s *Server) ReloadHandler(c *gin.Context) {
	var req ReloadRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dir := req.Dir
	if dir == "" {
		dir = s.modelDir
	}

	if err := s.engine.Reload(dir); err != nil {
		logger.Log.Error("reload failed", "dir", dir, "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.modelDir = dir
	c.JSON(http.StatusOK, gin.H{"status": "reloaded", "dir": dir})
}

func (s *Server) HealthHandler(c *gin.Context) {
	if s.engine.Model() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) engineInfo() monitoring.EngineInfo {
	m := s.engine.Model()
	if m == nil {
		return monitoring.EngineInfo{}
	}
	return monitoring.EngineInfo{
		ModelLoaded: true,
		ModelDir:    m.Dir,
		NumLayers:   m.Config.NLayer,
		NumHeads:    m.Config.NHead,
		EmbedDim:    m.Config.NEmbd,
		VocabSize:   m.Config.VocabSize,
		BlockSize:   m.Config.BlockSize,
	}
}
