package fetcher

import (
	"math/rand/v2"
	"sync"
	"time"
)

// UserAgent is a browser identity. Every header sent alongside it is derived
// from these fields so the request stays coherent.
type UserAgent struct {
	Family   string // chrome, edge, firefox, safari
	Value    string
	Weight   int
	Chromium bool
	Mobile   bool
	Platform string // Sec-Ch-Ua-Platform value, unquoted
	Version  string // major version
}

var userAgents = []UserAgent{
	{Family: "chrome", Weight: 30, Chromium: true, Platform: "Windows", Version: "120",
		Value: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"},
	{Family: "chrome", Weight: 15, Chromium: true, Platform: "Windows", Version: "119",
		Value: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"},
	{Family: "chrome", Weight: 12, Chromium: true, Platform: "macOS", Version: "120",
		Value: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"},
	{Family: "chrome", Weight: 4, Chromium: true, Platform: "Linux", Version: "120",
		Value: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"},
	{Family: "chrome", Weight: 8, Chromium: true, Mobile: true, Platform: "Android", Version: "120",
		Value: "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"},
	{Family: "edge", Weight: 10, Chromium: true, Platform: "Windows", Version: "120",
		Value: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0"},
	{Family: "firefox", Weight: 8, Platform: "Windows", Version: "120",
		Value: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0"},
	{Family: "safari", Weight: 8, Platform: "macOS", Version: "17",
		Value: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15"},
	{Family: "safari", Weight: 5, Mobile: true, Platform: "iOS", Version: "17",
		Value: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1"},
}

// conservativeAgents is desktop Chrome on Windows, the most common identity.
var conservativeAgents = func() []UserAgent {
	var out []UserAgent
	for _, ua := range userAgents {
		if ua.Family == "chrome" && ua.Platform == "Windows" {
			out = append(out, ua)
		}
	}
	return out
}()

// agentPicker draws weighted identities. It is safe for concurrent use.
type agentPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newAgentPicker(seed uint64) *agentPicker {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &agentPicker{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *agentPicker) pick(conservative bool) UserAgent {
	pool := userAgents
	if conservative {
		pool = conservativeAgents
	}

	total := 0
	for _, ua := range pool {
		total += ua.Weight
	}

	p.mu.Lock()
	n := p.rng.IntN(total)
	p.mu.Unlock()

	for _, ua := range pool {
		if n < ua.Weight {
			return ua
		}
		n -= ua.Weight
	}
	return pool[len(pool)-1]
}
