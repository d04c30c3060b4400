package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seo-optimizer/competition/analyzer"
	"github.com/seo-optimizer/competition/cache"
	"github.com/seo-optimizer/competition/logging"
	"github.com/seo-optimizer/competition/middleware"
	"github.com/seo-optimizer/competition/stats"
)

// statusClientClosedRequest is the nginx convention for a caller that went
// away before the response was ready.
const statusClientClosedRequest = 499

type server struct {
	analyzer *analyzer.Analyzer
	usage    *logging.Usage
	stats    *stats.Storage
	cache    cache.Store
	devMode  bool
	logger   *slog.Logger
}

func (s *server) router(rl *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler(s.logger))
	r.Use(middleware.Stats(s.usage, s.logger))
	if rl != nil {
		r.Use(rl.RateLimit())
	}

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.POST("/analyze", s.analyze)
		api.GET("/statistics", s.statistics)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *server) analyze(c *gin.Context) {
	var req analyzer.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	c.Set(middleware.QueryKey, req.Query)

	result, err := s.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		status, msg := errorStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("Analysis failed", "query", req.Query, "error", err, "requestId", c.GetString(middleware.RequestIDKey))
		}
		body := gin.H{"error": msg}
		var ece *analyzer.EmptyCorpusError
		if errors.As(err, &ece) {
			body["excluded"] = ece.Excluded
		}
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, result)
}

func errorStatus(err error) (int, string) {
	switch {
	case analyzer.IsInputError(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, analyzer.ErrEmptyCorpus):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "Request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Analysis timed out"
	default:
		return http.StatusInternalServerError, "Failed to analyze competition"
	}
}

func (s *server) statistics(c *gin.Context) {
	out := s.usage.Snapshot(s.devMode)
	if s.stats != nil {
		out["currentMonth"] = s.stats.GetCurrentStats()
		out["months"] = s.stats.GetAllMonths()
	}
	backend := "disabled"
	if s.cache != nil {
		backend = s.cache.Backend()
	}
	out["cacheBackend"] = backend
	c.JSON(http.StatusOK, out)
}
