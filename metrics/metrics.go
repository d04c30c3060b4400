// Package metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	FetchAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seo_fetch_attempts_total",
			Help: "Competitor page fetch attempts, labeled by attempt kind and resulting status.",
		},
		[]string{"kind", "status"},
	)
	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seo_fetch_attempt_duration_seconds",
			Help:    "Duration of single fetch attempts in seconds, redirects included.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	FetchOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seo_fetch_outcomes_total",
			Help: "Final fetch outcome per competitor URL.",
		},
		[]string{"status"},
	)
	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seo_analysis_duration_seconds",
			Help:    "End-to-end duration of competition analyses.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 90, 120},
		},
	)
	AnalysisResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seo_analyses_total",
			Help: "Competition analyses, labeled by result (ok, cached, empty_corpus, invalid, canceled).",
		},
		[]string{"result"},
	)
	CorpusSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seo_corpus_documents",
			Help:    "Usable documents per analysis.",
			Buckets: prometheus.LinearBuckets(0, 2, 11),
		},
	)
	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seo_cache_requests_total",
			Help: "Analysis cache lookups, labeled by hit or miss.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(FetchAttempts)
	prometheus.MustRegister(FetchDuration)
	prometheus.MustRegister(FetchOutcomes)
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(AnalysisResults)
	prometheus.MustRegister(CorpusSize)
	prometheus.MustRegister(CacheRequests)
}
