package analyzer

import (
	"math"
	"sort"

	"github.com/seo-optimizer/competition/extractor"
	"github.com/seo-optimizer/competition/scoring"
)

const (
	minSeoScore = 5
	maxSeoScore = 85

	// Component weights of the raw on-page score, out of 100.
	coverageWeight  = 35
	envelopeWeight  = 20
	structureWeight = 20
	lengthWeight    = 25

	coverageKeywords = 15

	// densityKeywords is how many flagged keywords count towards the
	// over-optimization score.
	densityKeywords = 10

	// overOptPenalty is how much of the over-optimization score is taken off
	// the SEO score.
	overOptPenalty = 0.2

	// A document 3x longer or shorter than the median gets no length credit.
	lengthTolerance = 3.0

	// Density per 1000 words above which a keyword counts as stuffed when
	// there are no peers to compare against.
	soloDensityLimit = 25.0

	keywordStuffingMax = 50.0
	envelopeTolerance  = 1.1
	stuffingRatio      = 2.5

	minMaxOverOptimization = 5
)

// seoScore rates how closely document idx follows the peer norms. It peaks
// for a document at the corpus norm and drops for outliers either way.
func seoScore(idx int, corpus []extractor.Document, required []scoring.TermStat, medianWords float64, overOpt int) int {
	doc := corpus[idx]
	raw := coverageAndEnvelope(idx, required) +
		structureScore(doc) +
		lengthScore(doc.WordCount, medianWords)

	score := minSeoScore + 0.8*raw - overOptPenalty*float64(overOpt)
	return clampInt(int(math.Round(score)), minSeoScore, maxSeoScore)
}

// coverageAndEnvelope awards coverage for each top required keyword present
// in the document and envelope credit when its count stays inside the range
// seen among the other documents using it.
func coverageAndEnvelope(idx int, required []scoring.TermStat) float64 {
	top := head(required, coverageKeywords)
	if len(top) == 0 {
		return coverageWeight + envelopeWeight
	}

	present, within := 0, 0
	for _, kw := range top {
		count, ok := kw.PerDocument[idx]
		if !ok {
			continue
		}
		present++
		lo, hi, peers := peerRange(kw.PerDocument, idx)
		if !peers || (count >= lo && count <= hi) {
			within++
		}
	}

	coverage := coverageWeight * float64(present) / float64(len(top))
	envelope := 0.0
	if present > 0 {
		envelope = envelopeWeight * float64(within) / float64(present)
	}
	return coverage + envelope
}

func structureScore(doc extractor.Document) float64 {
	signals := []bool{
		doc.Title != "",
		doc.H1 != "",
		doc.Headings > 0,
		doc.InternalLinks+doc.ExternalLinks > 0,
	}
	score := 0.0
	for _, ok := range signals {
		if ok {
			score += structureWeight / float64(len(signals))
		}
	}
	return score
}

func lengthScore(words int, median float64) float64 {
	if words <= 0 || median <= 0 {
		return 0
	}
	deviation := math.Abs(math.Log(float64(words)/median)) / math.Log(lengthTolerance)
	return lengthWeight * (1 - math.Min(1, deviation))
}

// keywordFlag is a required keyword a document repeats noticeably more than
// its peers do.
type keywordFlag struct {
	Term    string
	Count   int
	Density float64
	// Target is the count that would bring the keyword back within tolerance.
	Target int
	Score  float64
}

// overOptimizationFlags checks every required keyword of document idx and
// returns those that score, worst first. Ranking by corpus importance is not
// used here: a term stuffed in a single page can rank low overall.
func overOptimizationFlags(idx int, corpus []extractor.Document, required []scoring.TermStat) []keywordFlag {
	doc := corpus[idx]
	if doc.WordCount == 0 {
		return nil
	}

	var flags []keywordFlag
	for _, kw := range required {
		count, ok := kw.PerDocument[idx]
		if !ok || count == 0 {
			continue
		}
		own := density(count, doc.WordCount)

		var peers []float64
		for j, c := range kw.PerDocument {
			if j != idx && c > 0 && corpus[j].WordCount > 0 {
				peers = append(peers, density(c, corpus[j].WordCount))
			}
		}
		score := keywordOverOptimization(own, peers)
		if score <= 0 {
			continue
		}
		flags = append(flags, keywordFlag{
			Term:    kw.Term,
			Count:   count,
			Density: own,
			Target:  targetCount(peers, doc.WordCount),
			Score:   score,
		})
	}

	sort.SliceStable(flags, func(i, j int) bool {
		if flags[i].Score != flags[j].Score {
			return flags[i].Score > flags[j].Score
		}
		return flags[i].Term < flags[j].Term
	})
	return flags
}

// targetCount is the highest count of a words-long document whose density
// stays inside the peer tolerance, or under the solo limit without peers.
func targetCount(peers []float64, words int) int {
	limit := soloDensityLimit
	if len(peers) > 0 {
		limit = 0
		for _, p := range peers {
			limit = math.Max(limit, p*envelopeTolerance)
		}
	}
	return max(1, int(limit*float64(words)/1000))
}

// flagScore sums the densityKeywords worst keywords, capped at 100.
func flagScore(flags []keywordFlag) int {
	total := 0.0
	for _, f := range head(flags, densityKeywords) {
		total += f.Score
	}
	return clampInt(int(math.Round(total)), 0, 100)
}

// overOptimizationScore flags repetition of required keywords beyond what
// the other competitors do. Presence alone scores zero.
func overOptimizationScore(idx int, corpus []extractor.Document, required []scoring.TermStat) int {
	return flagScore(overOptimizationFlags(idx, corpus, required))
}

// keywordOverOptimization scores one keyword from 0 to 50. Densities up to
// envelopeTolerance times the highest peer density score nothing; beyond
// that the score grows linearly and saturates at stuffingRatio times it.
func keywordOverOptimization(own float64, peers []float64) float64 {
	if len(peers) == 0 {
		if own <= soloDensityLimit {
			return 0
		}
		return keywordStuffingMax * math.Min(1, (own-soloDensityLimit)/soloDensityLimit)
	}

	top := 0.0
	for _, p := range peers {
		top = math.Max(top, p)
	}
	if top == 0 {
		return keywordStuffingMax
	}
	ratio := own / top
	if ratio <= envelopeTolerance {
		return 0
	}
	return keywordStuffingMax * math.Min(1, (ratio-envelopeTolerance)/(stuffingRatio-envelopeTolerance))
}

func density(count, words int) float64 {
	return 1000 * float64(count) / float64(words)
}

// peerRange is the [min, max] count among documents other than idx.
func peerRange(perDoc map[int]int, idx int) (lo, hi int, ok bool) {
	for j, c := range perDoc {
		if j == idx {
			continue
		}
		if !ok || c < lo {
			lo = c
		}
		if !ok || c > hi {
			hi = c
		}
		ok = true
	}
	return lo, hi, ok
}

// percentile interpolates linearly over sorted values; p is 0 to 100.
func percentile(sorted []float64, p float64) float64 {
	switch len(sorted) {
	case 0:
		return 0
	case 1:
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

func sortedFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	sort.Float64s(out)
	return out
}

func targetSeoScore(scores []int) int {
	return clampInt(int(math.Round(percentile(sortedFloats(scores), 75))), 0, 100)
}

func recommendedWordCount(wordCounts []int) int {
	n := int(math.Round(percentile(sortedFloats(wordCounts), 50)))
	if n < 1 {
		return 1
	}
	return n
}

func maxOverOptimization(scores []int) int {
	p75 := int(math.Round(percentile(sortedFloats(scores), 75)))
	return clampInt(max(p75, minMaxOverOptimization), 0, 100)
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
