package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Usage tracks who calls the service and which queries they analyze.
type Usage struct {
	UniqueVisitors   map[string]time.Time `json:"uniqueVisitors"` // IP -> last visit
	AnalysisRequests int                  `json:"analysisRequests"`
	ErrorCount       int                  `json:"errorCount"`
	PopularQueries   map[string]int       `json:"popularQueries"`
	AverageLoadTime  float64              `json:"averageLoadTime"` // milliseconds
	TotalLoadTime    float64              `json:"totalLoadTime"`
	LastPersisted    time.Time            `json:"lastPersisted"`

	mutex    sync.RWMutex
	filePath string
	now      func() time.Time
}

// NewUsage loads previous usage from dataDir/usage.json when present.
func NewUsage(dataDir string) (*Usage, error) {
	u := &Usage{
		UniqueVisitors: make(map[string]time.Time),
		PopularQueries: make(map[string]int),
		filePath:       filepath.Join(dataDir, "usage.json"),
		now:            time.Now,
	}
	if err := u.Load(); err != nil {
		return u, err
	}
	return u, nil
}

func (u *Usage) TrackVisitor(ip string) {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	u.UniqueVisitors[ip] = u.now()
}

// normalizeQuery lowercases and collapses whitespace so that trivially
// different spellings count together.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// TrackAnalysis records one analysis request. It returns the running total.
func (u *Usage) TrackAnalysis(query string, loadTime time.Duration, failed bool) int {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	u.AnalysisRequests++
	if q := normalizeQuery(query); q != "" {
		u.PopularQueries[q]++
	}
	if failed {
		u.ErrorCount++
	}

	u.TotalLoadTime += float64(loadTime.Milliseconds())
	u.AverageLoadTime = u.TotalLoadTime / float64(u.AnalysisRequests)
	return u.AnalysisRequests
}

// UniqueVisitorsCount counts visitors seen in the last 24 hours.
func (u *Usage) UniqueVisitorsCount() int {
	u.mutex.RLock()
	defer u.mutex.RUnlock()
	return u.uniqueVisitorsLocked()
}

func (u *Usage) uniqueVisitorsLocked() int {
	cutoff := u.now().Add(-24 * time.Hour)
	count := 0
	for _, lastVisit := range u.UniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}
	return count
}

type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// TopQueries returns the n most analyzed queries, most frequent first.
func (u *Usage) TopQueries(n int) []QueryCount {
	u.mutex.RLock()
	defer u.mutex.RUnlock()
	return u.topQueriesLocked(n)
}

func (u *Usage) topQueriesLocked(n int) []QueryCount {
	out := make([]QueryCount, 0, len(u.PopularQueries))
	for q, c := range u.PopularQueries {
		out = append(out, QueryCount{Query: q, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Query < out[j].Query
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ErrorRate is the percentage of failed analysis requests.
func (u *Usage) ErrorRate() float64 {
	u.mutex.RLock()
	defer u.mutex.RUnlock()
	return u.errorRateLocked()
}

func (u *Usage) errorRateLocked() float64 {
	if u.AnalysisRequests == 0 {
		return 0
	}
	return float64(u.ErrorCount) / float64(u.AnalysisRequests) * 100
}

func (u *Usage) Save() error {
	u.mutex.Lock()
	u.LastPersisted = u.now()
	data, err := json.Marshal(u)
	u.mutex.Unlock()
	if err != nil {
		return fmt.Errorf("could not encode usage: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(u.filePath), 0755); err != nil {
		return fmt.Errorf("could not create usage directory: %w", err)
	}
	tempFile := u.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("could not write usage file: %w", err)
	}
	if err := os.Rename(tempFile, u.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("could not rename usage file: %w", err)
	}
	return nil
}

// Load reads persisted usage. A missing file is not an error.
func (u *Usage) Load() error {
	data, err := os.ReadFile(u.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open usage file: %w", err)
	}

	u.mutex.Lock()
	defer u.mutex.Unlock()
	if err := json.Unmarshal(data, u); err != nil {
		return fmt.Errorf("could not decode usage: %w", err)
	}
	if u.UniqueVisitors == nil {
		u.UniqueVisitors = make(map[string]time.Time)
	}
	if u.PopularQueries == nil {
		u.PopularQueries = make(map[string]int)
	}
	return nil
}

// Snapshot is the public view. Popular queries are only exposed in
// development mode.
func (u *Usage) Snapshot(devMode bool) map[string]any {
	u.mutex.RLock()
	defer u.mutex.RUnlock()

	out := map[string]any{
		"uniqueVisitors24h": u.uniqueVisitorsLocked(),
		"totalRequests":     u.AnalysisRequests,
		"errorRate":         u.errorRateLocked(),
		"averageLoadTime":   u.AverageLoadTime,
	}
	if devMode {
		out["popularQueries"] = u.topQueriesLocked(5)
	}
	return out
}
