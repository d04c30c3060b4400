package scoring

import (
	"strings"

	"github.com/seo-optimizer/competition/extractor"
)

const (
	minNGram = 2
	maxNGram = 4
)

// NGramStat is TermStat for a contiguous phrase of 2 to 4 tokens.
type NGramStat struct {
	NGram          string      `json:"ngram"`
	Tokens         []string    `json:"tokens"`
	PerDocument    map[int]int `json:"perDocument"`
	Documents      int         `json:"documents"`
	TotalFrequency int         `json:"totalFrequency"`
	MeanFrequency  float64     `json:"frequency"`
	MinFrequency   int         `json:"min_freq"`
	MaxFrequency   int         `json:"max_freq"`
	Importance     float64     `json:"importance"`
}

func (n NGramStat) rank() (float64, float64, string) {
	return n.Importance, n.MeanFrequency, n.NGram
}

// NGramMiner finds phrases that recur across competitors.
type NGramMiner struct {
	th Thresholds
}

func NewNGramMiner(th Thresholds) *NGramMiner {
	return &NGramMiner{th: th}
}

func (m *NGramMiner) Mine(corpus []extractor.Document) []NGramStat {
	stats := []NGramStat{}
	if len(corpus) == 0 {
		return stats
	}

	perDoc := make([]map[string]int, len(corpus))
	for i, doc := range corpus {
		counts := make(map[string]int)
		for n := minNGram; n <= maxNGram; n++ {
			for start := 0; start+n <= len(doc.Tokens); start++ {
				window := doc.Tokens[start : start+n]
				if validPhrase(window) {
					counts[joinTokens(window)]++
				}
			}
		}
		perDoc[i] = counts
	}

	minDocs := m.th.NGramMinDocuments
	if minDocs > len(corpus) {
		minDocs = len(corpus)
	}
	if minDocs < 1 {
		minDocs = 1
	}

	occ := aggregate(perDoc)
	for key, o := range occ {
		if o.documents < minDocs {
			delete(occ, key)
		}
	}
	top := maxTotal(occ)

	for key, o := range occ {
		stats = append(stats, NGramStat{
			NGram:          key,
			Tokens:         strings.Split(key, " "),
			PerDocument:    o.perDocument,
			Documents:      o.documents,
			TotalFrequency: o.total,
			MeanFrequency:  o.mean(),
			MinFrequency:   o.min,
			MaxFrequency:   o.max,
			Importance:     importance(o, len(corpus), top),
		})
	}
	sortRanked(stats)
	return truncate(dedupe(stats), m.th.NGramTopK)
}

// validPhrase rejects windows that start or end on a stopword, carry more than
// one interior stopword, or repeat a token.
func validPhrase(window []extractor.Token) bool {
	if window[0].Stop || window[len(window)-1].Stop {
		return false
	}
	stops := 0
	seen := make(map[string]struct{}, len(window))
	for _, tok := range window {
		if tok.Stop {
			stops++
		}
		if _, dup := seen[tok.Text]; dup {
			return false
		}
		seen[tok.Text] = struct{}{}
	}
	return stops <= 1
}

func joinTokens(window []extractor.Token) string {
	parts := make([]string, len(window))
	for i, tok := range window {
		parts[i] = tok.Text
	}
	return strings.Join(parts, " ")
}

// dedupe walks phrases in rank order and drops any phrase that contains, or
// is contained in, one already kept.
func dedupe(stats []NGramStat) []NGramStat {
	kept := make([]NGramStat, 0, len(stats))
	for _, s := range stats {
		overlaps := false
		for _, k := range kept {
			if containsRun(k.Tokens, s.Tokens) || containsRun(s.Tokens, k.Tokens) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, s)
		}
	}
	return kept
}

// containsRun reports whether needle occurs contiguously in hay.
func containsRun(hay, needle []string) bool {
	if len(needle) > len(hay) {
		return false
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		match := true
		for j := range needle {
			if hay[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
