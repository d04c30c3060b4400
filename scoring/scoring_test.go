package scoring

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/competition/extractor"
)

// buildDoc makes a document of wordCount tokens: the given term counts
// followed by stopword filler.
func buildDoc(wordCount int, counts map[string]int) extractor.Document {
	tokens := make([]extractor.Token, 0, wordCount)
	// Fixed order keeps fixtures reproducible.
	for _, term := range sortedKeys(counts) {
		for i := 0; i < counts[term]; i++ {
			tokens = append(tokens, extractor.Token{Text: term})
		}
	}
	for len(tokens) < wordCount {
		tokens = append(tokens, extractor.Token{Text: "the", Stop: true})
	}
	return extractor.Document{Tokens: tokens, WordCount: wordCount}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

func phraseDoc(text string) extractor.Document {
	stop := extractor.StopwordSet{"de": {}, "la": {}, "the": {}, "of": {}, "and": {}}
	words := extractor.Words(text)
	return extractor.Document{Tokens: extractor.Tokenize(words, stop, 2), WordCount: len(words)}
}

func find(stats []TermStat, term string) (TermStat, bool) {
	for _, s := range stats {
		if s.Term == term {
			return s, true
		}
	}
	return TermStat{}, false
}

func TestCreatineRoundTrip(t *testing.T) {
	corpus := []extractor.Document{
		buildDoc(1000, map[string]int{"creatine": 5, "protein": 1}),
		buildDoc(1200, map[string]int{"creatine": 6, "protein": 1}),
		buildDoc(1100, map[string]int{"creatine": 7, "protein": 2}),
	}

	required, complementary := NewKeywordScorer(DefaultThresholds()).Score(corpus)
	all := append(append([]TermStat{}, required...), complementary...)

	creatine, ok := find(all, "creatine")
	require.True(t, ok)
	assert.InDelta(t, 6.0, creatine.MeanFrequency, 1e-9)
	assert.Equal(t, 5, creatine.MinFrequency)
	assert.Equal(t, 7, creatine.MaxFrequency)
	assert.Equal(t, map[int]int{0: 5, 1: 6, 2: 7}, creatine.PerDocument)

	protein, ok := find(all, "protein")
	require.True(t, ok)
	assert.Greater(t, creatine.Importance, protein.Importance)
	assert.Equal(t, "creatine", required[0].Term)
}

func TestRequiredComplementarySplit(t *testing.T) {
	corpus := make([]extractor.Document, 10)
	for i := range corpus {
		counts := map[string]int{"filler": 1}
		if i < 9 {
			counts["creatine"] = 12
		}
		if i < 2 {
			counts["loading"] = 3
		}
		corpus[i] = buildDoc(400, counts)
	}

	required, complementary := NewKeywordScorer(DefaultThresholds()).Score(corpus)

	_, ok := find(required, "creatine")
	assert.True(t, ok, "term in 9 of 10 documents must be required")

	_, ok = find(required, "loading")
	assert.False(t, ok, "term in 2 of 10 documents must never be required")
	if stat, ok := find(complementary, "loading"); ok {
		assert.Equal(t, 2, stat.Documents)
	}
}

func TestCoverageMustExceedMajority(t *testing.T) {
	th := DefaultThresholds()
	th.RequiredImportance = 0
	corpus := []extractor.Document{
		buildDoc(100, map[string]int{"half": 10}),
		buildDoc(100, map[string]int{"half": 10}),
		buildDoc(100, map[string]int{"other": 1}),
		buildDoc(100, map[string]int{"other": 1}),
	}

	required, _ := NewKeywordScorer(th).Score(corpus)
	_, ok := find(required, "half")
	assert.False(t, ok, "exactly half the documents is not a majority")
}

func TestScoreIsDeterministic(t *testing.T) {
	corpus := make([]extractor.Document, 6)
	for i := range corpus {
		counts := map[string]int{}
		for j := 0; j < 40; j++ {
			counts[fmt.Sprintf("term%02d", (i*7+j)%50)] = (i+j)%5 + 1
		}
		corpus[i] = buildDoc(500, counts)
	}
	scorer := NewKeywordScorer(DefaultThresholds())

	req1, comp1 := scorer.Score(corpus)
	for run := 0; run < 20; run++ {
		req2, comp2 := scorer.Score(corpus)
		assert.Equal(t, req1, req2)
		assert.Equal(t, comp1, comp2)
	}
}

func TestImportanceBoundsAndOrdering(t *testing.T) {
	corpus := []extractor.Document{
		buildDoc(300, map[string]int{"alpha": 40, "beta": 3, "gamma": 3}),
		buildDoc(300, map[string]int{"alpha": 1, "beta": 3}),
		buildDoc(300, map[string]int{"delta": 2, "beta": 3}),
	}
	th := DefaultThresholds()
	th.ComplementaryImportance = 0

	required, complementary := NewKeywordScorer(th).Score(corpus)
	for _, list := range [][]TermStat{required, complementary} {
		for i, s := range list {
			assert.GreaterOrEqual(t, s.Importance, 0.0)
			assert.LessOrEqual(t, s.Importance, 100.0)
			if i > 0 {
				prev := list[i-1]
				assert.True(t, prev.Importance > s.Importance ||
					(prev.Importance == s.Importance && prev.MeanFrequency > s.MeanFrequency) ||
					(prev.Importance == s.Importance && prev.MeanFrequency == s.MeanFrequency && prev.Term < s.Term))
			}
		}
	}
}

func TestScoreEmptyCorpus(t *testing.T) {
	required, complementary := NewKeywordScorer(DefaultThresholds()).Score(nil)
	assert.NotNil(t, required)
	assert.NotNil(t, complementary)
	assert.Empty(t, required)
}

func TestMineRecurringPhrases(t *testing.T) {
	corpus := []extractor.Document{
		phraseDoc("choose the best creatine monohydrate for strength and the agence de communication"),
		phraseDoc("best creatine monohydrate powder reviewed by the agence de communication"),
		phraseDoc("why creatine monohydrate works"),
	}

	stats := NewNGramMiner(DefaultThresholds()).Mine(corpus)
	require.NotEmpty(t, stats)

	keys := make([]string, len(stats))
	for i, s := range stats {
		keys[i] = s.NGram
		assert.GreaterOrEqual(t, s.Documents, 2)
		assert.GreaterOrEqual(t, s.Importance, 0.0)
		assert.LessOrEqual(t, s.Importance, 100.0)
		assert.GreaterOrEqual(t, len(s.Tokens), 2)
		assert.LessOrEqual(t, len(s.Tokens), 4)
	}
	joined := strings.Join(keys, "|")
	assert.Contains(t, joined, "agence de communication")
	assert.Contains(t, keys, "creatine monohydrate")
}

func TestMineRejectsStopwordEdges(t *testing.T) {
	corpus := []extractor.Document{
		phraseDoc("of the creatine and of the creatine"),
		phraseDoc("of the creatine and of the creatine"),
	}
	for _, s := range NewNGramMiner(DefaultThresholds()).Mine(corpus) {
		assert.NotEqual(t, "of the", s.NGram)
		assert.False(t, strings.HasPrefix(s.NGram, "the "))
		assert.False(t, strings.HasSuffix(s.NGram, " the"))
	}
}

func TestMineDedupesContainedPhrases(t *testing.T) {
	text := "creatine monohydrate powder dosage"
	corpus := []extractor.Document{phraseDoc(text), phraseDoc(text), phraseDoc(text)}

	stats := NewNGramMiner(DefaultThresholds()).Mine(corpus)
	for i := range stats {
		for j := range stats {
			if i != j {
				assert.False(t, containsRun(stats[i].Tokens, stats[j].Tokens),
					"%q contains %q", stats[i].NGram, stats[j].NGram)
			}
		}
	}
}

func TestMineTopK(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "word%02da word%02db the ", i, i)
	}
	corpus := []extractor.Document{phraseDoc(b.String()), phraseDoc(b.String())}
	th := DefaultThresholds()
	th.NGramTopK = 10

	assert.Len(t, NewNGramMiner(th).Mine(corpus), 10)
}

func TestMineSingleDocument(t *testing.T) {
	corpus := []extractor.Document{phraseDoc("creatine monohydrate works")}
	stats := NewNGramMiner(DefaultThresholds()).Mine(corpus)
	require.NotEmpty(t, stats)
	assert.Equal(t, 1, stats[0].Documents)
}

func TestMineIsDeterministic(t *testing.T) {
	corpus := []extractor.Document{
		phraseDoc("best creatine monohydrate powder for strength gains and recovery"),
		phraseDoc("creatine monohydrate powder and strength gains explained"),
		phraseDoc("strength gains with creatine monohydrate"),
	}
	miner := NewNGramMiner(DefaultThresholds())
	first := miner.Mine(corpus)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, miner.Mine(corpus))
	}
}
