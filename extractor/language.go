package extractor

import (
	"log/slog"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// NormalizeLanguage reduces a locale such as "fr-FR" or "en_US" to its
// lowercase primary subtag.
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	return lang
}

// DetectLanguage guesses the ISO 639-1 code of text. It returns "" when the
// guess is unreliable.
func DetectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}

// ResolveLanguage picks the stopword set for an analysis. The declared
// language wins when supported; otherwise the sample text is used for
// detection. When neither yields a known set the neutral set is returned.
func ResolveLanguage(declared, sample string) (string, StopwordSet) {
	lang := NormalizeLanguage(declared)
	if set, ok := Stopwords(lang); ok {
		return lang, set
	}
	detected := DetectLanguage(sample)
	if set, ok := Stopwords(detected); ok {
		if lang != "" {
			slog.Warn("No stopwords for declared language, using detected language",
				"declared", declared, "detected", detected)
		}
		return detected, set
	}
	slog.Warn("No stopword set available, using neutral tokenization",
		"declared", declared, "detected", detected)
	return lang, Neutral
}
