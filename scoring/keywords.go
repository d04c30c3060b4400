package scoring

import (
	"github.com/seo-optimizer/competition/extractor"
)

// TermStat describes one keyword across the competitor corpus.
type TermStat struct {
	Term string `json:"keyword"`
	// PerDocument maps corpus index to occurrence count, for documents that
	// contain the term.
	PerDocument    map[int]int `json:"perDocument"`
	Documents      int         `json:"documents"`
	TotalFrequency int         `json:"totalFrequency"`
	MeanFrequency  float64     `json:"frequency"`
	MinFrequency   int         `json:"min_freq"`
	MaxFrequency   int         `json:"max_freq"`
	Importance     float64     `json:"importance"`
}

func (t TermStat) rank() (float64, float64, string) {
	return t.Importance, t.MeanFrequency, t.Term
}

// Coverage is the share of the corpus that contains the term.
func (t TermStat) Coverage(corpusSize int) float64 {
	if corpusSize == 0 {
		return 0
	}
	return float64(t.Documents) / float64(corpusSize)
}

// KeywordScorer splits the corpus vocabulary into required and complementary
// keywords.
type KeywordScorer struct {
	th Thresholds
}

func NewKeywordScorer(th Thresholds) *KeywordScorer {
	return &KeywordScorer{th: th}
}

// Score returns both keyword lists sorted by importance, then mean frequency,
// then term.
func (s *KeywordScorer) Score(corpus []extractor.Document) (required, complementary []TermStat) {
	required = []TermStat{}
	complementary = []TermStat{}
	if len(corpus) == 0 {
		return required, complementary
	}

	perDoc := make([]map[string]int, len(corpus))
	for i, doc := range corpus {
		counts := make(map[string]int)
		for _, tok := range doc.Tokens {
			if !tok.Stop {
				counts[tok.Text]++
			}
		}
		perDoc[i] = counts
	}

	occ := aggregate(perDoc)
	top := maxTotal(occ)

	for term, o := range occ {
		stat := TermStat{
			Term:           term,
			PerDocument:    o.perDocument,
			Documents:      o.documents,
			TotalFrequency: o.total,
			MeanFrequency:  o.mean(),
			MinFrequency:   o.min,
			MaxFrequency:   o.max,
			Importance:     importance(o, len(corpus), top),
		}
		switch {
		case stat.Coverage(len(corpus)) > s.th.RequiredCoverage && stat.Importance >= s.th.RequiredImportance:
			required = append(required, stat)
		case stat.Importance >= s.th.ComplementaryImportance:
			complementary = append(complementary, stat)
		}
	}

	sortRanked(required)
	sortRanked(complementary)
	return truncate(required, s.th.MaxRequired), truncate(complementary, s.th.MaxComplementary)
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
