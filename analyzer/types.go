package analyzer

import (
	"time"

	"github.com/seo-optimizer/competition/fetcher"
	"github.com/seo-optimizer/competition/scoring"
)

// SearchResult is one ranked entry supplied by the SERP provider.
type SearchResult struct {
	Position int    `json:"position"`
	URL      string `json:"url"`
	Domain   string `json:"domain,omitempty"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet,omitempty"`
}

// Request asks for the competition analysis of one query.
type Request struct {
	Query    string         `json:"query"`
	Language string         `json:"language"`
	Results  []SearchResult `json:"results"`
}

// AnalysisResult is the report for one query.
type AnalysisResult struct {
	ID                    string              `json:"id"`
	Query                 string              `json:"query"`
	Language              string              `json:"language"`
	TargetSeoScore        int                 `json:"targetSeoScore"`
	RecommendedWordCount  int                 `json:"recommendedWordCount"`
	MaxOverOptimization   int                 `json:"maxOverOptimization"`
	RequiredKeywords      []scoring.TermStat  `json:"requiredKeywords"`
	ComplementaryKeywords []scoring.TermStat  `json:"complementaryKeywords"`
	NGrams                []scoring.NGramStat `json:"ngrams"`
	Competitors           []CompetitorReport  `json:"competitors"`
	Excluded              []ExcludedResult    `json:"excluded"`
	DocumentsAnalyzed     int                 `json:"documentsAnalyzed"`
	WordStats             WordStats           `json:"wordStats"`
	ContentTypes          ContentTypes        `json:"contentTypes"`
	Recommendations       []string            `json:"recommendations"`
	Cached                bool                `json:"cached"`
	DurationMs            int64               `json:"durationMs"`
	CreatedAt             time.Time           `json:"createdAt"`
}

// CompetitorReport describes one competitor that produced usable content.
type CompetitorReport struct {
	Position               int            `json:"position"`
	Domain                 string         `json:"domain"`
	URL                    string         `json:"url"`
	FinalURL               string         `json:"finalUrl"`
	Title                  string         `json:"title"`
	H1                     string         `json:"h1"`
	WordCount              int            `json:"wordCount"`
	SeoScore               int            `json:"seoScore"`
	OverOptimizationScore  int            `json:"overOptimizationScore"`
	OverOptimizationLevel  string         `json:"overOptimizationLevel"`
	OverOptimizationAdvice []string       `json:"overOptimizationAdvice"`
	InternalLinks          int            `json:"internalLinks"`
	ExternalLinks          int            `json:"externalLinks"`
	FetchStatus            fetcher.Status `json:"fetchStatus"`
	FallbackUsed           bool           `json:"fallbackUsed"`
	RedirectChain          []fetcher.Hop  `json:"redirectChain,omitempty"`
}

const (
	ReasonFetchFailed    = "fetch_failed"
	ReasonBelowViability = "below_viability"
)

// ExcludedResult is a SERP entry that did not make it into the corpus.
type ExcludedResult struct {
	Position  int               `json:"position"`
	URL       string            `json:"url"`
	Domain    string            `json:"domain"`
	Status    fetcher.Status    `json:"status"`
	Reason    string            `json:"reason"`
	WordCount int               `json:"wordCount,omitempty"`
	Attempts  []fetcher.Attempt `json:"attempts,omitempty"`
}

type WordStats struct {
	Min  int `json:"min"`
	Max  int `json:"max"`
	Mean int `json:"mean"`
}

// ContentTypes is the percentage split of the SERP by page kind.
type ContentTypes struct {
	Editorial int `json:"editorial"`
	Catalogue int `json:"catalogue"`
	Product   int `json:"product"`
}
