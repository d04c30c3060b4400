package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{
		"fr-FR":  "fr",
		"en_US":  "en",
		" DE ":   "de",
		"":       "",
		"pt-BR":  "pt",
		"es-419": "es",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeLanguage(in), in)
	}
}

func TestResolveLanguageDeclared(t *testing.T) {
	lang, set := ResolveLanguage("fr-FR", "")
	assert.Equal(t, "fr", lang)
	assert.True(t, set.Contains("les"))
}

func TestResolveLanguageDetected(t *testing.T) {
	sample := "La créatine est un complément alimentaire très étudié par les sportifs qui souhaitent " +
		"améliorer leurs performances pendant les entraînements de musculation et de force."
	lang, set := ResolveLanguage("", sample)
	assert.Equal(t, "fr", lang)
	assert.True(t, set.Contains("est"))
}

func TestResolveLanguageNeutral(t *testing.T) {
	lang, set := ResolveLanguage("tlh", "")
	assert.Equal(t, "tlh", lang)
	assert.Empty(t, set)
}

func TestWordsSplitsApostrophes(t *testing.T) {
	assert.Equal(t, []string{"l", "école", "de", "commerce"}, Words("L'école de-commerce!"))
}

func TestRegistrableDomain(t *testing.T) {
	assert.Equal(t, "example.co.uk", RegistrableDomain("blog.example.co.uk"))
	assert.Equal(t, "example.com", RegistrableDomain("WWW.Example.com:8443"))
	assert.Equal(t, "127.0.0.1", RegistrableDomain("127.0.0.1:8080"))
	assert.Equal(t, "localhost", RegistrableDomain("localhost"))
}
