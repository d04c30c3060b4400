package fetcher

import (
	"errors"
	"time"
)

// Status is the terminal state of a fetch or of one attempt.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusBlocked      Status = "blocked"
	StatusNotFound     Status = "not_found"
	StatusTimeout      Status = "timeout"
	StatusFallbackUsed Status = "fallback_used"
)

var (
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrNonHTML          = errors.New("response is not HTML")
	ErrBelowViability   = errors.New("content below viability threshold")
	ErrMissingLocation  = errors.New("redirect without Location header")
)

// Hop is one response seen while resolving a URL.
type Hop struct {
	StatusCode int    `json:"statusCode"`
	URL        string `json:"url"`
}

// Attempt records a single request sequence (one URL and its redirects).
type Attempt struct {
	URL        string        `json:"url"`
	Fallback   bool          `json:"fallback"`
	Status     Status        `json:"status"`
	StatusCode int           `json:"statusCode,omitempty"`
	Words      int           `json:"words,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Outcome is produced once per requested URL and never changed afterwards.
type Outcome struct {
	Status        Status    `json:"status"`
	RequestedURL  string    `json:"requestedUrl"`
	FinalURL      string    `json:"finalUrl"`
	Body          []byte    `json:"-"`
	RedirectChain []Hop     `json:"redirectChain"`
	UserAgent     string    `json:"userAgent"`
	Attempts      []Attempt `json:"attempts"`
}

// OK reports whether the outcome carries usable content.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess || o.Status == StatusFallbackUsed
}

func (o Outcome) FallbackUsed() bool {
	return o.Status == StatusFallbackUsed
}
