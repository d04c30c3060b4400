package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/competition/analyzer"
	"github.com/seo-optimizer/competition/cache"
	"github.com/seo-optimizer/competition/config"
	"github.com/seo-optimizer/competition/extractor"
	"github.com/seo-optimizer/competition/fetcher"
	"github.com/seo-optimizer/competition/logging"
	"github.com/seo-optimizer/competition/middleware"
	"github.com/seo-optimizer/competition/scoring"
	"github.com/seo-optimizer/competition/stats"
)

const statsRetentionMonths = 12

func main() {
	config.LoadEnv()
	cfg := config.Load()

	logger, logCloser := logging.Setup(cfg.LogLevel, cfg.LogFile)
	slog.SetDefault(logger)

	err := run(cfg, logger)
	if err != nil {
		logger.Error("Server stopped with error", "error", err)
	}
	logCloser.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policies := fetcher.DefaultPolicies()
	if cfg.PolicyFile != "" {
		loaded, err := fetcher.LoadPolicyFile(cfg.PolicyFile)
		if err != nil {
			return err
		}
		policies = loaded
	}
	logger.Info("Domain policies loaded", "count", policies.Len(), "file", cfg.PolicyFile)

	fcfg := fetcher.DefaultConfig()
	fcfg.AttemptTimeout = cfg.FetchAttemptTimeout
	fcfg.MaxRedirects = cfg.MaxRedirects
	fcfg.MaxBodyBytes = cfg.MaxBodyBytes
	fcfg.MinViableWords = cfg.MinViableWords
	fcfg.PrimaryRetries = cfg.PrimaryRetries
	pageFetcher := fetcher.New(fcfg, policies, extractor.New(cfg.MinTermLength), logger)

	storage, err := stats.NewStorage(cfg.DataDir, logger)
	if err != nil {
		return err
	}
	defer storage.Close()
	storage.Cleanup(statsRetentionMonths)

	usage, err := logging.NewUsage(cfg.DataDir)
	if err != nil {
		logger.Warn("Could not load previous usage statistics", "error", err)
	}
	defer func() {
		if err := usage.Save(); err != nil {
			logger.Error("Failed to save usage statistics", "error", err)
		}
	}()

	opts := analyzer.DefaultOptions()
	opts.Thresholds = scoring.Thresholds{
		RequiredCoverage:        cfg.RequiredCoverage,
		RequiredImportance:      cfg.RequiredImportance,
		ComplementaryImportance: cfg.ComplementaryImportance,
		MaxRequired:             cfg.MaxRequiredKeywords,
		MaxComplementary:        cfg.MaxComplementary,
		NGramTopK:               cfg.NGramTopK,
		NGramMinDocuments:       cfg.NGramMinDocuments,
	}
	opts.MinTermLength = cfg.MinTermLength
	opts.MinViableWords = cfg.MinViableWords
	opts.MaxConcurrentFetches = cfg.MaxConcurrentFetches
	opts.AnalysisTimeout = cfg.AnalysisTimeout
	opts.DefaultLanguage = cfg.DefaultLanguage
	opts.Stats = storage
	if cfg.CacheEnabled {
		store := cache.Open(ctx, cache.Options{
			RedisAddr:     cfg.RedisAddr,
			RedisPassword: cfg.RedisPassword,
			RedisDB:       cfg.RedisDB,
		}, logger)
		defer store.Close()
		opts.Cache = store
		opts.CacheTTL = cfg.CacheTTL
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go rateLimiter.Run(time.Minute, ctx.Done())

	srv := &server{
		analyzer: analyzer.New(pageFetcher, opts, logger),
		usage:    usage,
		stats:    storage,
		cache:    opts.Cache,
		devMode:  cfg.GinMode == gin.DebugMode,
		logger:   logger,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.router(rateLimiter),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.AnalysisTimeout + 30*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "addr", "http://localhost:"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
