package extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token is one lowercase word of a page. Stop tokens keep their place in the
// stream so phrase mining sees the original word order.
type Token struct {
	Text string `json:"text"`
	Stop bool   `json:"stop,omitempty"`
}

// Words splits text into lowercase runs of letters and digits. Apostrophes,
// hyphens and punctuation all act as separators.
func Words(text string) []string {
	words := make([]string, 0, len(text)/6)
	start := -1
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			words = append(words, strings.ToLower(text[start:i]))
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, strings.ToLower(text[start:]))
	}
	return words
}

// Tokenize turns words into tokens, flagging stopwords, numbers and words
// shorter than minLength runes.
func Tokenize(words []string, stopwords StopwordSet, minLength int) []Token {
	tokens := make([]Token, len(words))
	for i, w := range words {
		tokens[i] = Token{Text: w, Stop: isStop(w, stopwords, minLength)}
	}
	return tokens
}

func isStop(word string, stopwords StopwordSet, minLength int) bool {
	if utf8.RuneCountInString(word) < minLength {
		return true
	}
	if stopwords.Contains(word) {
		return true
	}
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Terms returns the non-stop token texts in order.
func Terms(tokens []Token) []string {
	terms := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !t.Stop {
			terms = append(terms, t.Text)
		}
	}
	return terms
}
