package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/competition/logging"
)

// QueryKey is where the analyze handler leaves the query for usage tracking.
const QueryKey = "analysisQuery"

const saveEvery = 100

// Stats tracks visitors and analysis requests and logs every request.
// Usage is persisted every saveEvery analyses.
func Stats(usage *logging.Usage, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		usage.TrackVisitor(c.ClientIP())

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		logger.Info("Request handled",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"durationMs", elapsed.Milliseconds(),
			"clientIp", c.ClientIP(),
			"requestId", c.GetString(RequestIDKey),
		)

		query := c.GetString(QueryKey)
		if c.Request.Method != http.MethodPost || query == "" {
			return
		}
		total := usage.TrackAnalysis(query, elapsed, status >= http.StatusBadRequest)
		if total%saveEvery == 0 {
			go func() {
				if err := usage.Save(); err != nil {
					logger.Error("Failed to save usage statistics", "error", err)
				}
			}()
		}
	}
}
