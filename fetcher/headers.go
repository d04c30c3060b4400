package fetcher

import (
	"fmt"
	"net/http"
)

const (
	acceptChromium = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7"
	acceptFirefox  = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	acceptSafari   = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

var languageRegions = map[string]string{
	"en": "en-US",
	"fr": "fr-FR",
	"es": "es-ES",
	"de": "de-DE",
	"it": "it-IT",
	"pt": "pt-PT",
}

var googleHosts = map[string]string{
	"fr": "https://www.google.fr/",
	"es": "https://www.google.es/",
	"de": "https://www.google.de/",
	"it": "https://www.google.it/",
	"pt": "https://www.google.pt/",
}

func acceptLanguage(lang string) string {
	if lang == "" || lang == "en" {
		return "en-US,en;q=0.9"
	}
	region, ok := languageRegions[lang]
	if !ok {
		return fmt.Sprintf("%s,en;q=0.8", lang)
	}
	return fmt.Sprintf("%s,%s;q=0.9,en;q=0.8", region, lang)
}

func googleReferer(lang string) string {
	if ref, ok := googleHosts[lang]; ok {
		return ref
	}
	return "https://www.google.com/"
}

// buildHeaders derives the full header set for one attempt. Accept-Encoding
// is left to the transport so compressed bodies are decoded transparently.
func buildHeaders(ua UserAgent, lang string, policy Policy) http.Header {
	h := make(http.Header)
	h.Set("User-Agent", ua.Value)

	switch {
	case ua.Chromium:
		h.Set("Accept", acceptChromium)
	case ua.Family == "firefox":
		h.Set("Accept", acceptFirefox)
	default:
		h.Set("Accept", acceptSafari)
	}

	if policy.AcceptLanguage != "" {
		h.Set("Accept-Language", policy.AcceptLanguage)
	} else {
		h.Set("Accept-Language", acceptLanguage(lang))
	}

	h.Set("Referer", googleReferer(lang))
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "cross-site")
	if ua.Family != "safari" {
		h.Set("Sec-Fetch-User", "?1")
	}

	// Client hints only exist in Chromium builds.
	if ua.Chromium {
		brand := "Google Chrome"
		if ua.Family == "edge" {
			brand = "Microsoft Edge"
		}
		h.Set("Sec-Ch-Ua", fmt.Sprintf(`"Not_A Brand";v="8", "Chromium";v="%s", "%s";v="%s"`, ua.Version, brand, ua.Version))
		if ua.Mobile {
			h.Set("Sec-Ch-Ua-Mobile", "?1")
		} else {
			h.Set("Sec-Ch-Ua-Mobile", "?0")
		}
		h.Set("Sec-Ch-Ua-Platform", fmt.Sprintf("%q", ua.Platform))
	}

	if policy.Conservative {
		h.Set("Cache-Control", "max-age=0")
	}
	return h
}
