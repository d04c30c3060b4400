// Package scoring turns an extracted competitor corpus into keyword and
// phrase statistics. Everything here is a pure function of its input.
package scoring

import (
	"math"
	"sort"
)

const (
	breadthWeight  = 0.6
	salienceWeight = 0.4
)

// Thresholds tune the keyword split and phrase output.
type Thresholds struct {
	// RequiredCoverage is the share of documents a term must exceed to be required.
	RequiredCoverage        float64
	RequiredImportance      float64
	ComplementaryImportance float64
	MaxRequired             int
	MaxComplementary        int
	NGramTopK               int
	NGramMinDocuments       int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		RequiredCoverage:        0.5,
		RequiredImportance:      50,
		ComplementaryImportance: 15,
		MaxRequired:             45,
		MaxComplementary:        100,
		NGramTopK:               25,
		NGramMinDocuments:       2,
	}
}

// occurrence aggregates one vocabulary entry across the corpus.
type occurrence struct {
	perDocument map[int]int
	documents   int
	total       int
	min         int
	max         int
}

func (o *occurrence) mean() float64 {
	if o.documents == 0 {
		return 0
	}
	return float64(o.total) / float64(o.documents)
}

// aggregate folds per-document counts into corpus-wide occurrences. Min, max
// and mean only consider documents that contain the key.
func aggregate(perDoc []map[string]int) map[string]*occurrence {
	out := make(map[string]*occurrence)
	for docID, counts := range perDoc {
		for key, c := range counts {
			if c <= 0 {
				continue
			}
			o, ok := out[key]
			if !ok {
				o = &occurrence{perDocument: make(map[int]int), min: c, max: c}
				out[key] = o
			}
			o.perDocument[docID] = c
			o.documents++
			o.total += c
			if c < o.min {
				o.min = c
			}
			if c > o.max {
				o.max = c
			}
		}
	}
	return out
}

func maxTotal(occ map[string]*occurrence) int {
	m := 0
	for _, o := range occ {
		if o.total > m {
			m = o.total
		}
	}
	return m
}

// importance scores a key on 0..100. Breadth is the share of documents that
// contain it; salience is its corpus frequency relative to the most frequent
// key, square-rooted so one dominant term does not flatten the rest. Both
// terms are monotonic.
func importance(o *occurrence, corpusSize, maxTotal int) float64 {
	if corpusSize == 0 || maxTotal == 0 {
		return 0
	}
	breadth := float64(o.documents) / float64(corpusSize)
	salience := math.Sqrt(float64(o.total) / float64(maxTotal))
	score := 100 * (breadthWeight*breadth + salienceWeight*salience)
	return math.Round(math.Min(100, math.Max(0, score))*100) / 100
}

type ranked interface {
	rank() (importance, mean float64, key string)
}

func sortRanked[T ranked](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		ii, mi, ki := items[i].rank()
		ij, mj, kj := items[j].rank()
		if ii != ij {
			return ii > ij
		}
		if mi != mj {
			return mi > mj
		}
		return ki < kj
	})
}
