package extractor

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html><head><title>  Best Creatine Guide </title>
<script>var tracking = "creatine creatine creatine";</script>
<style>.creatine { color: red }</style></head>
<body>
<header><a href="/">Home</a> menu creatine</header>
<nav><a href="/shop">Shop</a><a href="https://partner.com/deal">Partner</a></nav>
<h1>Creatine   monohydrate</h1>
<p>Creatine is the most studied supplement.</p><p>Protein helps recovery.</p>
<h2>Dosage</h2>
<p>Take five grams of creatine daily.</p>
<a href="https://blog.example.com/post">Related</a>
<a href="https://other.org/study#results">Study</a>
<a href="https://other.org/study">Study again</a>
<a href="mailto:hi@example.com">Mail</a>
<a href="#top">Top</a>
<footer>Copyright creatine corp</footer>
</body></html>`

func TestExtractStructure(t *testing.T) {
	doc := New(2).Extract([]byte(samplePage), "https://www.example.com/creatine", "en")

	assert.Equal(t, "Best Creatine Guide", doc.Title)
	assert.Equal(t, "Creatine monohydrate", doc.H1)
	assert.Equal(t, 1, doc.Headings)
	assert.Equal(t, "example.com", doc.Domain)
	// "/", "/shop" and blog.example.com are internal; partner.com and other.org external.
	assert.Equal(t, 3, doc.InternalLinks)
	assert.Equal(t, 2, doc.ExternalLinks)
}

func TestExtractStripsBoilerplate(t *testing.T) {
	doc := New(2).Extract([]byte(samplePage), "https://www.example.com/creatine", "en")

	assert.NotContains(t, doc.BodyText, "tracking")
	assert.NotContains(t, doc.BodyText, "color")
	assert.NotContains(t, doc.BodyText, "menu")
	assert.NotContains(t, doc.BodyText, "copyright")
	assert.Contains(t, doc.BodyText, "supplement protein")

	count := 0
	for _, tok := range doc.Tokens {
		if tok.Text == "creatine" {
			count++
			assert.False(t, tok.Stop)
		}
	}
	assert.Equal(t, 3, count)
}

func TestExtractMarksStopwords(t *testing.T) {
	doc := New(2).Extract([]byte(`<html><body><p>The creatine is in the 5 grams</p></body></html>`), "https://a.com/", "en")

	require.Len(t, doc.Tokens, 7)
	assert.Equal(t, 7, doc.WordCount)
	assert.Equal(t, []string{"creatine", "grams"}, Terms(doc.Tokens))
}

func TestExtractDegenerateInput(t *testing.T) {
	ex := New(2)

	doc := ex.Extract([]byte(""), "https://a.com/", "en")
	assert.Equal(t, 0, doc.WordCount)

	doc = ex.Extract([]byte(`<html><body><script>only()</script></body></html>`), "https://a.com/", "en")
	assert.Equal(t, 0, doc.WordCount)
	assert.Empty(t, doc.Tokens)
}

func TestExtractPrefersMainRegion(t *testing.T) {
	article := strings.Repeat("useful article words here ", 30)
	page := fmt.Sprintf(`<html><body><div>sidebar junk promo</div><article>%s</article></body></html>`, article)

	doc := New(2).Extract([]byte(page), "https://a.com/", "en")

	assert.Equal(t, 120, doc.WordCount)
	assert.NotContains(t, doc.BodyText, "sidebar")
}

func TestCountWords(t *testing.T) {
	page := "<html><body><p>" + strings.Repeat("word ", 120) + "</p><script>x y z</script></body></html>"
	assert.Equal(t, 120, New(2).CountWords([]byte(page)))
}

func TestUnknownLanguageUsesNeutralSet(t *testing.T) {
	doc := New(2).Extract([]byte(`<p>the creatine</p>`), "https://a.com/", "xx")
	assert.Equal(t, []string{"the", "creatine"}, Terms(doc.Tokens))
}
