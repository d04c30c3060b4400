// Package config loads service settings from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	GinMode  string
	LogFile  string
	LogLevel string
	DataDir  string

	FetchAttemptTimeout  time.Duration
	AnalysisTimeout      time.Duration
	MaxConcurrentFetches int
	MaxRedirects         int
	MaxBodyBytes         int64
	MinViableWords       int
	PrimaryRetries       int
	PolicyFile           string
	DefaultLanguage      string

	RequiredCoverage        float64
	RequiredImportance      float64
	ComplementaryImportance float64
	MaxRequiredKeywords     int
	MaxComplementary        int
	MinTermLength           int
	NGramTopK               int
	NGramMinDocuments       int

	CacheEnabled  bool
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitRPS   float64
	RateLimitBurst int
}

// LoadEnv reads .env.development, then .env. Missing files are not an error.
func LoadEnv() {
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			slog.Debug("No .env file found, using environment variables")
		}
	}
}

func Load() Config {
	cfg := Config{
		Port:            getEnv("PORT", "8082"),
		GinMode:         getEnv("GIN_MODE", "release"),
		LogFile:         getEnv("LOG_FILE", "logs/seo-competition.log"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DataDir:         getEnv("DATA_DIR", "data"),
		PolicyFile:      getEnv("POLICY_FILE", ""),
		DefaultLanguage: strings.ToLower(getEnv("DEFAULT_LANGUAGE", "en")),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
	}

	cfg.FetchAttemptTimeout = getDuration("FETCH_ATTEMPT_TIMEOUT", 10*time.Second)
	cfg.AnalysisTimeout = getDuration("ANALYSIS_TIMEOUT", 90*time.Second)
	cfg.MaxConcurrentFetches = getInt("MAX_CONCURRENT_FETCHES", 6)
	cfg.MaxRedirects = getInt("MAX_REDIRECTS", 5)
	cfg.MaxBodyBytes = int64(getInt("MAX_BODY_BYTES", 5*1024*1024))
	cfg.MinViableWords = getInt("MIN_VIABLE_WORDS", 50)
	cfg.PrimaryRetries = getInt("PRIMARY_RETRIES", 1)

	cfg.RequiredCoverage = getFloat("REQUIRED_COVERAGE", 0.5)
	cfg.RequiredImportance = getFloat("REQUIRED_IMPORTANCE", 50)
	cfg.ComplementaryImportance = getFloat("COMPLEMENTARY_IMPORTANCE", 15)
	cfg.MaxRequiredKeywords = getInt("MAX_REQUIRED_KEYWORDS", 45)
	cfg.MaxComplementary = getInt("MAX_COMPLEMENTARY_KEYWORDS", 100)
	cfg.MinTermLength = getInt("MIN_TERM_LENGTH", 2)
	cfg.NGramTopK = getInt("NGRAM_TOP_K", 25)
	cfg.NGramMinDocuments = getInt("NGRAM_MIN_DOCUMENTS", 2)

	cfg.CacheEnabled = getBool("CACHE_ENABLED", true)
	cfg.CacheTTL = getDuration("CACHE_TTL", 24*time.Hour)
	cfg.RedisDB = getInt("REDIS_DB", 0)

	cfg.RateLimitRPS = getFloat("RATE_LIMIT_RPS", 2)
	cfg.RateLimitBurst = getInt("RATE_LIMIT_BURST", 5)

	return cfg
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Invalid integer setting, using default", "key", key, "value", raw, "default", defaultVal)
		return defaultVal
	}
	return v
}

func getFloat(key string, defaultVal float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultVal
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("Invalid float setting, using default", "key", key, "value", raw, "default", defaultVal)
		return defaultVal
	}
	return v
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultVal
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("Invalid duration setting, using default", "key", key, "value", raw, "default", defaultVal)
		return defaultVal
	}
	return v
}

func getBool(key string, defaultVal bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultVal
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("Invalid boolean setting, using default", "key", key, "value", raw, "default", defaultVal)
		return defaultVal
	}
	return v
}
