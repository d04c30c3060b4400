package extractor

import (
	"net"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
)

// RegistrableDomain returns the eTLD+1 of host ("blog.example.co.uk" ->
// "example.co.uk"). IPs, localhost and unknown suffixes fall back to the
// lowercase host without port.
func RegistrableDomain(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" || net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// DomainOf returns the registrable domain of a URL, or "" when it cannot be
// parsed.
func DomainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return RegistrableDomain(u.Host)
}

func countLinks(doc *goquery.Document, pageURL string) (internal, external int) {
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return 0, 0
	}
	pageDomain := RegistrableDomain(base.Host)

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		lower := strings.ToLower(href)
		for _, prefix := range []string{"mailto:", "tel:", "javascript:", "data:"} {
			if strings.HasPrefix(lower, prefix) {
				return
			}
		}

		resolved, err := base.Parse(href)
		if err != nil || (resolved.Scheme != "http" && resolved.Scheme != "https") {
			return
		}
		resolved.Fragment = ""
		key := resolved.String()
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		if RegistrableDomain(resolved.Host) == pageDomain {
			internal++
		} else {
			external++
		}
	})
	return internal, external
}
