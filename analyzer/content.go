package analyzer

import (
	"fmt"
	"math"
	"strings"

	"github.com/seo-optimizer/competition/extractor"
)

var (
	productMarkers   = []string{"/produit/", "/product/", "/products/", "/p/", "acheter", "prix", "commander", "/buy", "price"}
	catalogueMarkers = []string{"/categorie/", "/category/", "/categories/", "/collection/", "/collections/", "boutique", "shop"}
)

// classifyContentTypes splits the SERP into product pages, catalogues and
// editorial content by URL shape. An empty list counts as fully editorial.
func classifyContentTypes(results []SearchResult) ContentTypes {
	if len(results) == 0 {
		return ContentTypes{Editorial: 100}
	}

	var editorial, catalogue, product int
	for _, r := range results {
		u := strings.ToLower(r.URL)
		switch {
		case containsAny(u, productMarkers):
			product++
		case containsAny(u, catalogueMarkers):
			catalogue++
		default:
			editorial++
		}
	}

	total := float64(len(results))
	return ContentTypes{
		Editorial: int(float64(editorial) / total * 100),
		Catalogue: int(float64(catalogue) / total * 100),
		Product:   int(float64(product) / total * 100),
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func wordStats(corpus []extractor.Document) WordStats {
	if len(corpus) == 0 {
		return WordStats{}
	}
	ws := WordStats{Min: corpus[0].WordCount, Max: corpus[0].WordCount}
	sum := 0
	for _, doc := range corpus {
		ws.Min = min(ws.Min, doc.WordCount)
		ws.Max = max(ws.Max, doc.WordCount)
		sum += doc.WordCount
	}
	ws.Mean = int(math.Round(float64(sum) / float64(len(corpus))))
	return ws
}

// recommendations turns the report into a writing checklist for a new page.
func recommendations(result *AnalysisResult, corpus []extractor.Document) []string {
	var recs []string

	recs = append(recs, fmt.Sprintf("Aim for about %d words (competitors range from %d to %d)",
		result.RecommendedWordCount, result.WordStats.Min, result.WordStats.Max))

	for _, kw := range head(result.RequiredKeywords, 5) {
		if kw.MinFrequency == kw.MaxFrequency {
			recs = append(recs, fmt.Sprintf("Use %q about %d times", kw.Term, kw.MinFrequency))
			continue
		}
		recs = append(recs, fmt.Sprintf("Use %q between %d and %d times", kw.Term, kw.MinFrequency, kw.MaxFrequency))
	}

	if len(result.NGrams) > 0 {
		phrases := make([]string, 0, 3)
		for _, ng := range head(result.NGrams, 3) {
			phrases = append(phrases, fmt.Sprintf("%q", ng.NGram))
		}
		recs = append(recs, "Work in the recurring phrases "+strings.Join(phrases, ", "))
	}

	var withH1, withHeadings, internal int
	links := make([]int, 0, len(corpus))
	for _, doc := range corpus {
		if doc.H1 != "" {
			withH1++
		}
		if doc.Headings > 0 {
			withHeadings++
		}
		links = append(links, doc.InternalLinks)
	}
	if 2*withH1 >= len(corpus) {
		recs = append(recs, "Add a single H1 heading that states the topic")
	}
	if 2*withHeadings >= len(corpus) {
		recs = append(recs, "Structure the page with H2/H3 subheadings")
	}
	if internal = int(math.Round(percentile(sortedFloats(links), 50))); internal > 0 {
		recs = append(recs, fmt.Sprintf("Add around %d internal links", internal))
	}

	switch {
	case result.ContentTypes.Product >= 50:
		recs = append(recs, "Most results are product pages; a product page matches the search intent better than an article")
	case result.ContentTypes.Catalogue >= 50:
		recs = append(recs, "Most results are category pages; a catalogue layout matches the search intent better than an article")
	}

	recs = append(recs, fmt.Sprintf("Target an SEO score of at least %d and keep over-optimization below %d",
		result.TargetSeoScore, result.MaxOverOptimization))
	return recs
}

// Over-optimization levels, from harmless to severe.
const (
	LevelOptimal  = "optimal"
	LevelLow      = "low"
	LevelModerate = "moderate"
	LevelHigh     = "high"
	LevelCritical = "critical"
	LevelExtreme  = "extreme"
)

func overOptimizationLevel(score int) string {
	switch {
	case score >= 50:
		return LevelExtreme
	case score >= 35:
		return LevelCritical
	case score >= 25:
		return LevelHigh
	case score >= 15:
		return LevelModerate
	case score >= 8:
		return LevelLow
	default:
		return LevelOptimal
	}
}

// optimizationAdvice names the worst repeated keywords of one competitor.
func optimizationAdvice(flags []keywordFlag) []string {
	if len(flags) == 0 {
		return []string{"Keyword usage is in line with the other competitors"}
	}
	advice := make([]string, 0, min(len(flags), 5))
	for _, f := range head(flags, 5) {
		advice = append(advice, fmt.Sprintf("Reduce %q from %d to at most %d uses (%.1f per 1000 words)",
			f.Term, f.Count, f.Target, f.Density))
	}
	return advice
}
