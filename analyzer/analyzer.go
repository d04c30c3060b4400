// Package analyzer turns a ranked list of competitor URLs into keyword,
// length and score targets for a new page.
package analyzer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/seo-optimizer/competition/cache"
	"github.com/seo-optimizer/competition/extractor"
	"github.com/seo-optimizer/competition/fetcher"
	"github.com/seo-optimizer/competition/metrics"
	"github.com/seo-optimizer/competition/scoring"
	"github.com/seo-optimizer/competition/stats"
)

// Fetcher retrieves one competitor page. Failures are reported in the
// outcome, never as an error.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, domain, lang string) fetcher.Outcome
}

type Options struct {
	Thresholds           scoring.Thresholds
	MinTermLength        int
	MinViableWords       int
	MaxConcurrentFetches int
	AnalysisTimeout      time.Duration
	DefaultLanguage      string

	// Cache and Stats are optional.
	Cache    cache.Store
	CacheTTL time.Duration
	Stats    *stats.Storage
}

func DefaultOptions() Options {
	return Options{
		Thresholds:           scoring.DefaultThresholds(),
		MinTermLength:        3,
		MinViableWords:       50,
		MaxConcurrentFetches: 6,
		AnalysisTimeout:      90 * time.Second,
		DefaultLanguage:      "en",
		CacheTTL:             30 * time.Minute,
	}
}

// Analyzer is safe for concurrent use. Each call to Analyze owns its corpus.
type Analyzer struct {
	fetcher   Fetcher
	extractor *extractor.Extractor
	scorer    *scoring.KeywordScorer
	miner     *scoring.NGramMiner
	opts      Options
	logger    *slog.Logger
}

func New(f Fetcher, opts Options, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxConcurrentFetches < 1 {
		opts.MaxConcurrentFetches = 1
	}
	if opts.AnalysisTimeout <= 0 {
		opts.AnalysisTimeout = DefaultOptions().AnalysisTimeout
	}
	opts.DefaultLanguage = extractor.NormalizeLanguage(opts.DefaultLanguage)

	return &Analyzer{
		fetcher:   f,
		extractor: extractor.New(opts.MinTermLength),
		scorer:    scoring.NewKeywordScorer(opts.Thresholds),
		miner:     scoring.NewNGramMiner(opts.Thresholds),
		opts:      opts,
		logger:    logger.With("component", "analyzer"),
	}
}

// Analyze fetches every result, scores the usable pages and derives the
// targets. Only malformed input, an empty corpus or caller cancellation
// fail the call.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*AnalysisResult, error) {
	start := time.Now()

	results, err := validate(req)
	if err != nil {
		metrics.AnalysisResults.WithLabelValues("invalid").Inc()
		return nil, err
	}
	query := strings.TrimSpace(req.Query)
	lang := extractor.NormalizeLanguage(req.Language)
	if lang == "" {
		lang = a.opts.DefaultLanguage
	}

	key := cacheKey(query, lang, results)
	if cached, ok := a.lookup(ctx, key); ok {
		metrics.AnalysisResults.WithLabelValues("cached").Inc()
		a.logger.Info("Serving cached analysis", "query", query, "id", cached.ID)
		return cached, nil
	}

	outcomes, err := a.fetchAll(ctx, results, lang)
	if err != nil {
		metrics.AnalysisResults.WithLabelValues("canceled").Inc()
		a.logger.Warn("Analysis canceled", "query", query, "error", err)
		return nil, err
	}
	delta := fetchDelta(outcomes)

	result, err := a.build(query, lang, results, outcomes)
	if err != nil {
		delta.EmptyCorpus = 1
		a.record(delta)
		metrics.AnalysisResults.WithLabelValues("empty_corpus").Inc()
		a.logger.Warn("No usable competitor content", "query", query, "results", len(results))
		return nil, err
	}

	result.DurationMs = time.Since(start).Milliseconds()
	delta.Analyses = 1
	delta.DocumentsAnalyzed = result.DocumentsAnalyzed
	a.record(delta)
	a.store(ctx, key, result)

	metrics.AnalysisResults.WithLabelValues("ok").Inc()
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	metrics.CorpusSize.Observe(float64(result.DocumentsAnalyzed))
	a.logger.Info("Analysis complete",
		"id", result.ID,
		"query", query,
		"language", result.Language,
		"documents", result.DocumentsAnalyzed,
		"excluded", len(result.Excluded),
		"targetSeoScore", result.TargetSeoScore,
		"durationMs", result.DurationMs,
	)
	return result, nil
}

// validate checks the request and returns its results ordered by position,
// with missing domains filled in.
func validate(req Request) ([]SearchResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}
	if len(req.Results) == 0 {
		return nil, ErrNoResults
	}

	results := make([]SearchResult, len(req.Results))
	for i, r := range req.Results {
		if r.Position < 1 {
			return nil, fmt.Errorf("%w: position %d must be at least 1", ErrInvalidResult, r.Position)
		}
		u, err := url.Parse(strings.TrimSpace(r.URL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: position %d: %q is not an absolute http(s) URL", ErrInvalidResult, r.Position, r.URL)
		}
		r.URL = u.String()
		if r.Domain == "" {
			r.Domain = extractor.DomainOf(r.URL)
		}
		results[i] = r
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Position < results[j].Position
	})
	return results, nil
}

// fetchAll runs the fetches on a bounded pool. Each task writes only its own
// slot. Hitting the analysis deadline turns unfinished work into timeouts;
// cancellation by the caller aborts the whole analysis.
func (a *Analyzer) fetchAll(ctx context.Context, results []SearchResult, lang string) ([]fetcher.Outcome, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, a.opts.AnalysisTimeout)
	defer cancel()

	outcomes := make([]fetcher.Outcome, len(results))
	var g errgroup.Group
	g.SetLimit(a.opts.MaxConcurrentFetches)

	for i, r := range results {
		g.Go(func() error {
			if fetchCtx.Err() != nil {
				outcomes[i] = fetcher.Outcome{Status: fetcher.StatusTimeout, RequestedURL: r.URL, FinalURL: r.URL}
				return nil
			}
			outcomes[i] = a.fetcher.Fetch(fetchCtx, r.URL, r.Domain, lang)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (a *Analyzer) build(query, lang string, results []SearchResult, outcomes []fetcher.Outcome) (*AnalysisResult, error) {
	var (
		corpus   []extractor.Document
		members  []int // index into results for each corpus entry
		excluded = []ExcludedResult{}
	)

	for i, r := range results {
		out := outcomes[i]
		if !out.OK() {
			excluded = append(excluded, ExcludedResult{
				Position: r.Position,
				URL:      r.URL,
				Domain:   r.Domain,
				Status:   out.Status,
				Reason:   ReasonFetchFailed,
				Attempts: out.Attempts,
			})
			continue
		}

		doc := a.extractor.Extract(out.Body, out.FinalURL, lang)
		if doc.WordCount < a.opts.MinViableWords {
			excluded = append(excluded, ExcludedResult{
				Position:  r.Position,
				URL:       r.URL,
				Domain:    r.Domain,
				Status:    out.Status,
				Reason:    ReasonBelowViability,
				WordCount: doc.WordCount,
				Attempts:  out.Attempts,
			})
			continue
		}
		corpus = append(corpus, doc)
		members = append(members, i)
	}

	if len(corpus) == 0 {
		return nil, &EmptyCorpusError{Query: query, Attempted: len(results), Excluded: excluded}
	}

	resolved, stopwords := extractor.ResolveLanguage(lang, languageSample(corpus))
	if resolved != lang {
		for i := range corpus {
			corpus[i].Tokens = extractor.Tokenize(strings.Fields(corpus[i].BodyText), stopwords, a.opts.MinTermLength)
			corpus[i].Language = resolved
		}
	}

	required, complementary := a.scorer.Score(corpus)
	ngrams := a.miner.Mine(corpus)

	wordCounts := make([]int, len(corpus))
	for i, doc := range corpus {
		wordCounts[i] = doc.WordCount
	}
	medianWords := percentile(sortedFloats(wordCounts), 50)

	competitors := make([]CompetitorReport, len(corpus))
	seoScores := make([]int, len(corpus))
	overOpts := make([]int, len(corpus))
	for i, doc := range corpus {
		r := results[members[i]]
		out := outcomes[members[i]]

		flags := overOptimizationFlags(i, corpus, required)
		overOpts[i] = flagScore(flags)
		seoScores[i] = seoScore(i, corpus, required, medianWords, overOpts[i])

		title := doc.Title
		if title == "" {
			title = r.Title
		}
		competitors[i] = CompetitorReport{
			Position:               r.Position,
			Domain:                 r.Domain,
			URL:                    r.URL,
			FinalURL:               out.FinalURL,
			Title:                  title,
			H1:                     doc.H1,
			WordCount:              doc.WordCount,
			SeoScore:               seoScores[i],
			OverOptimizationScore:  overOpts[i],
			OverOptimizationLevel:  overOptimizationLevel(overOpts[i]),
			OverOptimizationAdvice: optimizationAdvice(flags),
			InternalLinks:          doc.InternalLinks,
			ExternalLinks:          doc.ExternalLinks,
			FetchStatus:            out.Status,
			FallbackUsed:           out.FallbackUsed(),
			RedirectChain:          out.RedirectChain,
		}
	}
	sort.SliceStable(competitors, func(i, j int) bool {
		return competitors[i].Position < competitors[j].Position
	})

	result := &AnalysisResult{
		ID:                    uuid.NewString(),
		Query:                 query,
		Language:              resolved,
		TargetSeoScore:        targetSeoScore(seoScores),
		RecommendedWordCount:  recommendedWordCount(wordCounts),
		MaxOverOptimization:   maxOverOptimization(overOpts),
		RequiredKeywords:      required,
		ComplementaryKeywords: complementary,
		NGrams:                ngrams,
		Competitors:           competitors,
		Excluded:              excluded,
		DocumentsAnalyzed:     len(corpus),
		WordStats:             wordStats(corpus),
		ContentTypes:          classifyContentTypes(results),
		CreatedAt:             time.Now().UTC(),
	}
	result.Recommendations = recommendations(result, corpus)
	return result, nil
}

// languageSample is enough text from the corpus for language detection.
func languageSample(corpus []extractor.Document) string {
	const limit = 4000
	var b strings.Builder
	for _, doc := range corpus {
		if b.Len() >= limit {
			break
		}
		b.WriteString(doc.BodyText)
		b.WriteByte(' ')
	}
	s := b.String()
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// cacheKey fingerprints the query, language and ordered URL list.
func cacheKey(query, lang string, results []SearchResult) string {
	parts := make([]string, 0, len(results)+2)
	parts = append(parts, strings.ToLower(query), lang)
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("%d|%s", r.Position, r.URL))
	}
	hash := md5.Sum([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(hash[:])
}

func (a *Analyzer) lookup(ctx context.Context, key string) (*AnalysisResult, bool) {
	if a.opts.Cache == nil || a.opts.CacheTTL <= 0 {
		return nil, false
	}

	data, ok, err := a.opts.Cache.Get(ctx, key)
	if err != nil {
		a.logger.Warn("Cache lookup failed", "backend", a.opts.Cache.Backend(), "error", err)
		return nil, false
	}
	if !ok {
		metrics.CacheRequests.WithLabelValues("miss").Inc()
		a.record(stats.Delta{CacheMisses: 1})
		return nil, false
	}

	var result AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		a.logger.Warn("Discarding unreadable cache entry", "key", key, "error", err)
		return nil, false
	}
	metrics.CacheRequests.WithLabelValues("hit").Inc()
	a.record(stats.Delta{CacheHits: 1})
	result.Cached = true
	return &result, true
}

func (a *Analyzer) store(ctx context.Context, key string, result *AnalysisResult) {
	if a.opts.Cache == nil || a.opts.CacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		a.logger.Error("Failed to encode analysis for cache", "error", err)
		return
	}
	if err := a.opts.Cache.Set(ctx, key, data, a.opts.CacheTTL); err != nil {
		a.logger.Warn("Failed to cache analysis", "backend", a.opts.Cache.Backend(), "error", err)
	}
}

func (a *Analyzer) record(d stats.Delta) {
	if a.opts.Stats != nil {
		a.opts.Stats.Record(d)
	}
}

func fetchDelta(outcomes []fetcher.Outcome) stats.Delta {
	var d stats.Delta
	for _, out := range outcomes {
		switch out.Status {
		case fetcher.StatusSuccess:
			d.FetchSuccess++
		case fetcher.StatusFallbackUsed:
			d.FetchFallback++
		case fetcher.StatusNotFound:
			d.FetchNotFound++
		case fetcher.StatusTimeout:
			d.FetchTimeout++
		default:
			d.FetchBlocked++
		}
	}
	return d
}
