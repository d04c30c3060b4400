// Package fetcher retrieves competitor pages the way a browser would, with
// redirect tracking, retries and per-domain fallback URLs.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/seo-optimizer/competition/metrics"
)

// WordCounter measures how much readable text a page carries.
type WordCounter interface {
	CountWords(page []byte) int
}

// Config bounds a single fetch.
type Config struct {
	AttemptTimeout time.Duration
	MaxRedirects   int
	MaxBodyBytes   int64
	MinViableWords int
	PrimaryRetries int
	// Seed fixes the user-agent sequence. Zero seeds from the clock.
	Seed uint64
}

// DefaultConfig allows five redirects, a 10s attempt and one retry.
func DefaultConfig() Config {
	return Config{
		AttemptTimeout: 10 * time.Second,
		MaxRedirects:   5,
		MaxBodyBytes:   5 * 1024 * 1024,
		MinViableWords: 50,
		PrimaryRetries: 1,
	}
}

// Fetcher retrieves competitor pages with a browser-like identity. It is safe
// for concurrent use.
type Fetcher struct {
	cfg      Config
	client   *http.Client
	policies *PolicyTable
	counter  WordCounter
	agents   *agentPicker
	logger   *slog.Logger
}

// New builds a Fetcher. A nil policy table means the default table.
func New(cfg Config, policies *PolicyTable, counter WordCounter, logger *slog.Logger) *Fetcher {
	if policies == nil {
		policies = DefaultPolicies()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRedirects < 0 {
		cfg.MaxRedirects = 0
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			// Redirects are followed by hand so every hop is recorded.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		policies: policies,
		counter:  counter,
		agents:   newAgentPicker(cfg.Seed),
		logger:   logger.With("component", "fetcher"),
	}
}

type attemptResult struct {
	status     Status
	statusCode int
	finalURL   string
	body       []byte
	chain      []Hop
	elapsed    time.Duration
	err        error
}

// Fetch retrieves rawURL. domain selects the fallback list when the host
// itself has no policy; lang drives Accept-Language and the referer.
// The outcome is always returned, failures included.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, domain, lang string) Outcome {
	policy := f.policyFor(rawURL, domain)
	ua := f.agents.pick(policy.Conservative)

	out := Outcome{RequestedURL: rawURL}
	res := f.attempt(ctx, rawURL, ua, lang, policy, false)
	out.Attempts = append(out.Attempts, res.record(rawURL, false))

	for i := 0; i < f.cfg.PrimaryRetries && res.retryable() && ctx.Err() == nil; i++ {
		ua = f.agents.pick(policy.Conservative)
		f.logger.Debug("Retrying with fresh user agent", "url", rawURL, "status", res.status, "attempt", i+2)
		res = f.attempt(ctx, rawURL, ua, lang, policy, false)
		out.Attempts = append(out.Attempts, res.record(rawURL, false))
	}

	out.UserAgent = ua.Value
	out.RedirectChain = res.chain
	out.FinalURL = res.finalURL
	if out.FinalURL == "" {
		out.FinalURL = rawURL
	}

	if res.status == StatusSuccess {
		out.Status = StatusSuccess
		out.Body = res.body
		metrics.FetchOutcomes.WithLabelValues(string(out.Status)).Inc()
		return out
	}
	out.Status = res.status

	for _, fallback := range policy.Fallbacks {
		if ctx.Err() != nil {
			break
		}
		fb := f.attempt(ctx, fallback, ua, lang, policy, true)
		rec := fb.record(fallback, true)
		if fb.status == StatusSuccess {
			words := f.countWords(fb.body)
			rec.Words = words
			if words <= f.cfg.MinViableWords {
				rec.Status = StatusBlocked
				rec.Error = fmt.Errorf("%w: %d words", ErrBelowViability, words).Error()
				out.Attempts = append(out.Attempts, rec)
				continue
			}
			out.Attempts = append(out.Attempts, rec)
			out.Status = StatusFallbackUsed
			out.Body = fb.body
			out.FinalURL = fb.finalURL
			out.RedirectChain = fb.chain
			f.logger.Info("Fallback URL used", "requested", rawURL, "fallback", fallback, "words", words)
			metrics.FetchOutcomes.WithLabelValues(string(out.Status)).Inc()
			return out
		}
		out.Attempts = append(out.Attempts, rec)
	}

	f.logger.Warn("Fetch failed", "url", rawURL, "status", out.Status, "attempts", len(out.Attempts))
	metrics.FetchOutcomes.WithLabelValues(string(out.Status)).Inc()
	return out
}

func (f *Fetcher) policyFor(rawURL, domain string) Policy {
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		if p := f.policies.Match(u.Hostname()); p.Pattern != "" {
			return p
		}
	}
	return f.policies.Match(domain)
}

func (f *Fetcher) countWords(body []byte) int {
	if f.counter == nil {
		return len(bytes.Fields(body))
	}
	return f.counter.CountWords(body)
}

// attempt resolves target with its own deadline, following at most
// MaxRedirects redirects.
func (f *Fetcher) attempt(ctx context.Context, target string, ua UserAgent, lang string, policy Policy, fallback bool) (res attemptResult) {
	kind := "primary"
	if fallback {
		kind = "fallback"
	}
	start := time.Now()
	defer func() {
		res.elapsed = time.Since(start)
		metrics.FetchAttempts.WithLabelValues(kind, string(res.status)).Inc()
		metrics.FetchDuration.WithLabelValues(kind).Observe(res.elapsed.Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, f.cfg.AttemptTimeout)
	defer cancel()

	headers := buildHeaders(ua, lang, policy)
	current := target
	redirects := 0

	for {
		res.finalURL = current
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current, nil)
		if err != nil {
			res.status = StatusBlocked
			res.err = fmt.Errorf("invalid url %q: %w", current, err)
			return res
		}
		req.Header = headers.Clone()

		resp, err := f.client.Do(req)
		if err != nil {
			res.status = classify(err)
			res.err = err
			return res
		}
		res.statusCode = resp.StatusCode
		res.chain = append(res.chain, Hop{StatusCode: resp.StatusCode, URL: current})

		if isRedirect(resp.StatusCode) {
			location := resp.Header.Get("Location")
			drain(resp.Body)
			if location == "" {
				res.status = StatusBlocked
				res.err = ErrMissingLocation
				return res
			}
			if redirects >= f.cfg.MaxRedirects {
				res.status = StatusBlocked
				res.err = fmt.Errorf("%w: more than %d", ErrTooManyRedirects, f.cfg.MaxRedirects)
				return res
			}
			next, err := resp.Request.URL.Parse(location)
			if err != nil {
				res.status = StatusBlocked
				res.err = fmt.Errorf("invalid redirect location %q: %w", location, err)
				return res
			}
			redirects++
			current = next.String()
			continue
		}

		body, err := f.readBody(resp)
		if err != nil {
			res.status = classify(err)
			res.err = err
			return res
		}
		res.body = body
		res.status = statusFor(resp.StatusCode)
		if res.status != StatusSuccess {
			res.err = fmt.Errorf("http status %d", resp.StatusCode)
			res.body = nil
		}
		return res
	}
}

func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && !isHTML(contentType) {
		drain(resp.Body)
		return nil, fmt.Errorf("%w: %s", ErrNonHTML, contentType)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	decoded, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return raw, nil
	}
	utf8Body, err := io.ReadAll(decoded)
	if err != nil {
		return raw, nil
	}
	return utf8Body, nil
}

func (r attemptResult) record(target string, fallback bool) Attempt {
	a := Attempt{
		URL:        target,
		Fallback:   fallback,
		Status:     r.status,
		StatusCode: r.statusCode,
		Duration:   r.elapsed,
	}
	if r.err != nil {
		a.Error = r.err.Error()
	}
	return a
}

// retryable reports whether another identity might get through.
func (r attemptResult) retryable() bool {
	if r.status != StatusBlocked {
		return false
	}
	return !errors.Is(r.err, ErrTooManyRedirects) && !errors.Is(r.err, ErrNonHTML)
}

func classify(err error) Status {
	var netErr net.Error
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.As(err, &dnsErr) && dnsErr.IsNotFound:
		return StatusNotFound
	case errors.As(err, &netErr) && netErr.Timeout():
		return StatusTimeout
	default:
		return StatusBlocked
	}
}

func statusFor(code int) Status {
	switch {
	case code >= 200 && code < 300:
		return StatusSuccess
	case code == http.StatusNotFound || code == http.StatusGone:
		return StatusNotFound
	default:
		return StatusBlocked
	}
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64*1024))
	_ = body.Close()
}
