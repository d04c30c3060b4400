// Package extractor reduces fetched HTML to prose tokens and structural
// signals.
package extractor

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// boilerplate is removed before text extraction.
const boilerplate = "script, style, noscript, iframe, svg, template, nav, header, footer, aside, form, " +
	"[role=navigation], [role=banner], [role=contentinfo], [aria-hidden=true]"

// minRegionWords is the size a main/article region needs before it replaces
// the whole body as the text source.
const minRegionWords = 100

// Document is the extracted view of one competitor page.
type Document struct {
	URL           string  `json:"url"`
	Domain        string  `json:"domain"`
	Title         string  `json:"title"`
	H1            string  `json:"h1"`
	Headings      int     `json:"headings"`
	BodyText      string  `json:"-"`
	Tokens        []Token `json:"-"`
	WordCount     int     `json:"wordCount"`
	InternalLinks int     `json:"internalLinks"`
	ExternalLinks int     `json:"externalLinks"`
	Language      string  `json:"language"`
}

// Extractor is safe for concurrent use; it holds configuration only.
type Extractor struct {
	minTermLength int
}

func New(minTermLength int) *Extractor {
	if minTermLength < 1 {
		minTermLength = 1
	}
	return &Extractor{minTermLength: minTermLength}
}

// Extract parses page HTML. Unparseable or empty input yields a Document with
// a zero word count rather than an error; callers decide what to keep.
func (e *Extractor) Extract(page []byte, pageURL, lang string) Document {
	out := Document{URL: pageURL, Domain: DomainOf(pageURL), Language: lang}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		slog.Debug("HTML parse failed", "url", pageURL, "error", err)
		return out
	}

	out.Title = collapse(doc.Find("title").First().Text())
	out.H1 = collapse(doc.Find("h1").First().Text())
	out.Headings = doc.Find("h2, h3").Length()
	out.InternalLinks, out.ExternalLinks = countLinks(doc, pageURL)

	doc.Find(boilerplate).Remove()

	words := Words(visibleText(contentRoot(doc)))
	stopwords, ok := Stopwords(lang)
	if !ok {
		stopwords = Neutral
	}
	out.Tokens = Tokenize(words, stopwords, e.minTermLength)
	out.WordCount = len(words)
	out.BodyText = strings.Join(words, " ")
	return out
}

// CountWords reports the number of visible words in page. It lets the fetcher
// judge whether a fallback page carries real content.
func (e *Extractor) CountWords(page []byte) int {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return 0
	}
	doc.Find(boilerplate).Remove()
	return len(Words(visibleText(contentRoot(doc))))
}

// contentRoot prefers the largest main/article region when it holds enough
// words, and falls back to the body.
func contentRoot(doc *goquery.Document) *goquery.Selection {
	var best *goquery.Selection
	bestWords := 0
	doc.Find("main, article, [role=main]").Each(func(_ int, s *goquery.Selection) {
		n := len(Words(visibleText(s)))
		if n > bestWords {
			best, bestWords = s, n
		}
	})
	if best != nil && bestWords >= minRegionWords {
		return best
	}
	if body := doc.Find("body"); body.Length() > 0 {
		return body
	}
	return doc.Selection
}

// visibleText concatenates text nodes with a separator so adjacent block
// elements do not glue words together.
func visibleText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
