package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/competition/extractor"
)

func page(words int) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Test page</title></head><body><p>")
	for i := 0; i < words; i++ {
		fmt.Fprintf(&b, "word%03d ", i)
	}
	b.WriteString("</p></body></html>")
	return b.String()
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AttemptTimeout = 2 * time.Second
	cfg.Seed = 42
	return cfg
}

func newTestFetcher(cfg Config, policies *PolicyTable) *Fetcher {
	if policies == nil {
		policies = NewPolicyTable(nil)
	}
	return New(cfg, policies, extractor.New(2), nil)
}

// redirectServer serves /r/N as a redirect to /r/N-1 and /r/0 as a page.
func redirectServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		n, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/r/"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if n == 0 {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, page(80))
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/r/%d", n-1), http.StatusFound)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchFollowsRedirectsWithinBound(t *testing.T) {
	var hits int32
	srv := redirectServer(t, &hits)

	out := newTestFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL+"/r/5", "", "en")

	require.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, srv.URL+"/r/0", out.FinalURL)
	require.Len(t, out.RedirectChain, 6)
	for _, hop := range out.RedirectChain[:5] {
		assert.Equal(t, http.StatusFound, hop.StatusCode)
	}
	assert.Equal(t, http.StatusOK, out.RedirectChain[5].StatusCode)
	assert.NotEmpty(t, out.Body)
}

func TestFetchStopsAfterFiveRedirects(t *testing.T) {
	var hits int32
	srv := redirectServer(t, &hits)

	out := newTestFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL+"/r/6", "", "en")

	assert.Equal(t, StatusBlocked, out.Status)
	assert.False(t, out.OK())
	assert.Nil(t, out.Body)
	assert.Len(t, out.RedirectChain, 6)
	assert.Equal(t, int32(6), atomic.LoadInt32(&hits), "the sixth redirect target must never be requested")
	require.Len(t, out.Attempts, 1, "redirect loops are not retried")
	assert.Contains(t, out.Attempts[0].Error, ErrTooManyRedirects.Error())
}

func TestFetchFallbackOrdering(t *testing.T) {
	var order []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		order = append(order, r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/article":
			w.WriteHeader(http.StatusForbidden)
		case "/good":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, page(120))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL + "/"
	dead.Close()

	host := mustHost(t, srv.URL)
	policies := NewPolicyTable([]Policy{{
		Pattern:   host,
		Fallbacks: []string{deadURL, srv.URL + "/moved", srv.URL + "/good"},
	}})

	out := newTestFetcher(testConfig(), policies).Fetch(context.Background(), srv.URL+"/article", host, "en")

	require.Equal(t, StatusFallbackUsed, out.Status)
	assert.True(t, out.FallbackUsed())
	assert.Equal(t, srv.URL+"/good", out.FinalURL)
	assert.Equal(t, srv.URL+"/article", out.RequestedURL)
	assert.Equal(t, 120, extractor.New(2).CountWords(out.Body))

	// Primary, its retry, then the three fallbacks in configured order.
	require.Len(t, out.Attempts, 5)
	assert.False(t, out.Attempts[1].Fallback)
	assert.Equal(t, deadURL, out.Attempts[2].URL)
	assert.Equal(t, StatusBlocked, out.Attempts[2].Status)
	assert.Equal(t, StatusNotFound, out.Attempts[3].Status)
	assert.Equal(t, StatusSuccess, out.Attempts[4].Status)
	assert.Equal(t, 120, out.Attempts[4].Words)
	assert.Equal(t, []string{"/article", "/article", "/moved", "/good"}, order)
	for _, attempt := range out.Attempts {
		assert.Positive(t, attempt.Duration, attempt.URL)
	}
}

func TestFetchFallbackBelowViability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/thin" {
			fmt.Fprint(w, page(20))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	host := mustHost(t, srv.URL)
	policies := NewPolicyTable([]Policy{{Pattern: host, Fallbacks: []string{srv.URL + "/thin"}}})

	out := newTestFetcher(testConfig(), policies).Fetch(context.Background(), srv.URL+"/", host, "en")

	assert.Equal(t, StatusBlocked, out.Status)
	assert.Nil(t, out.Body)
	last := out.Attempts[len(out.Attempts)-1]
	assert.True(t, last.Fallback)
	assert.Equal(t, 20, last.Words)
	assert.Contains(t, last.Error, ErrBelowViability.Error())
}

func TestFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	out := newTestFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL+"/gone", "", "en")

	assert.Equal(t, StatusNotFound, out.Status)
	assert.Len(t, out.Attempts, 1, "not found is not retried")
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.AttemptTimeout = 50 * time.Millisecond

	start := time.Now()
	out := newTestFetcher(cfg, nil).Fetch(context.Background(), srv.URL, "", "en")

	assert.Equal(t, StatusTimeout, out.Status)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetchRetriesWithFreshAgent(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, page(60))
	}))
	defer srv.Close()

	out := newTestFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL, "", "en")

	assert.Equal(t, StatusSuccess, out.Status)
	require.Len(t, out.Attempts, 2)
	assert.Equal(t, StatusBlocked, out.Attempts[0].Status)
	assert.Equal(t, http.StatusForbidden, out.Attempts[0].StatusCode)
}

func TestFetchRejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4")
	}))
	defer srv.Close()

	out := newTestFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL, "", "en")

	assert.Equal(t, StatusBlocked, out.Status)
	require.Len(t, out.Attempts, 1)
	assert.Contains(t, out.Attempts[0].Error, ErrNonHTML.Error())
}

func TestFetchDecodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<html><body><p>caf\xe9 cr\xe9atine</p></body></html>"))
	}))
	defer srv.Close()

	out := newTestFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL, "", "fr")

	require.Equal(t, StatusSuccess, out.Status)
	assert.Contains(t, string(out.Body), "café créatine")
}

func TestFetchKeepsIdentityAcrossRedirects(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]struct{}{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.Header.Get("User-Agent")] = struct{}{}
		mu.Unlock()
		if r.URL.Path == "/start" {
			http.Redirect(w, r, "/end", http.StatusMovedPermanently)
			return
		}
		fmt.Fprint(w, page(60))
	}))
	defer srv.Close()

	out := newTestFetcher(testConfig(), nil).Fetch(context.Background(), srv.URL+"/start", "", "fr")

	require.Equal(t, StatusSuccess, out.Status)
	assert.Len(t, seen, 1)
	_, ok := seen[out.UserAgent]
	assert.True(t, ok)
}

func TestFetchHonorsParentCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := newTestFetcher(testConfig(), nil).Fetch(ctx, srv.URL, "", "en")
	assert.False(t, out.OK())
	assert.Len(t, out.Attempts, 1)
}

func TestBuildHeadersClientHints(t *testing.T) {
	for _, ua := range userAgents {
		h := buildHeaders(ua, "fr", Policy{})
		assert.Equal(t, ua.Value, h.Get("User-Agent"))
		assert.Empty(t, h.Get("Accept-Encoding"))
		assert.Equal(t, "fr-FR,fr;q=0.9,en;q=0.8", h.Get("Accept-Language"))
		assert.Equal(t, "https://www.google.fr/", h.Get("Referer"))
		if ua.Chromium {
			assert.Contains(t, h.Get("Sec-Ch-Ua"), ua.Version, ua.Value)
			assert.Equal(t, strconv.Quote(ua.Platform), h.Get("Sec-Ch-Ua-Platform"))
		} else {
			assert.Empty(t, h.Get("Sec-Ch-Ua"), ua.Value)
			assert.Empty(t, h.Get("Sec-Ch-Ua-Mobile"), ua.Value)
			assert.Empty(t, h.Get("Sec-Ch-Ua-Platform"), ua.Value)
		}
	}
}

func TestBuildHeadersPolicyOverrides(t *testing.T) {
	h := buildHeaders(conservativeAgents[0], "en", Policy{Conservative: true, AcceptLanguage: "fr-FR,fr;q=0.9"})
	assert.Equal(t, "fr-FR,fr;q=0.9", h.Get("Accept-Language"))
	assert.Equal(t, "max-age=0", h.Get("Cache-Control"))
	assert.Equal(t, "https://www.google.com/", h.Get("Referer"))
}

func TestConservativePoolIsDesktopChromeWindows(t *testing.T) {
	picker := newAgentPicker(7)
	for i := 0; i < 200; i++ {
		ua := picker.pick(true)
		assert.Equal(t, "chrome", ua.Family)
		assert.Equal(t, "Windows", ua.Platform)
		assert.False(t, ua.Mobile)
	}
}

func TestAgentPickerIsSeeded(t *testing.T) {
	a, b := newAgentPicker(99), newAgentPicker(99)
	families := map[string]bool{}
	for i := 0; i < 500; i++ {
		ua := a.pick(false)
		assert.Equal(t, ua, b.pick(false))
		families[ua.Family] = true
	}
	assert.Len(t, families, 4)
}

func TestPolicyMatchLongestSuffix(t *testing.T) {
	table := DefaultPolicies()

	assert.Equal(t, "economie.gouv.fr", table.Match("www.economie.gouv.fr").Pattern)
	assert.Equal(t, "gouv.fr", table.Match("impots.gouv.fr").Pattern)
	assert.True(t, table.Match("impots.gouv.fr").Conservative)
	assert.Equal(t, "wikipedia.org", table.Match("fr.wikipedia.org").Pattern)
	assert.Empty(t, table.Match("notgouv.fr").Pattern)
	assert.Empty(t, table.Match("example.com").Pattern)
	assert.Equal(t, "gov", table.Match("www.irs.gov").Pattern)
}

func TestLoadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yaml")
	content := `policies:
  - pattern: Example.COM
    conservative: true
    accept_language: en-GB,en;q=0.9
    fallbacks:
      - https://www.example.com/
      - https://www.example.com/about
  - pattern: ""
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := LoadPolicyFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	p := table.Match("blog.example.com")
	assert.Equal(t, "example.com", p.Pattern)
	assert.True(t, p.Conservative)
	assert.Equal(t, []string{"https://www.example.com/", "https://www.example.com/about"}, p.Fallbacks)

	_, err = LoadPolicyFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func mustHost(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Hostname()
}
