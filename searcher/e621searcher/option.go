package e621searcher

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Option E621Searcher option
type Option func(s *E621Searcher)

// WithTransport with custom http.RoundTripper transport option
func WithTransport(transport http.RoundTripper) Option {
	return func(s *E621Searcher) {
		if transport != nil {
			s.Transport = transport
		}
	}
}

// WithAPIURL with posts API endpoint option
func WithAPIURL(apiURL string) Option {
	return func(s *E621Searcher) {
		if apiURL != "" {
			s.APIURL = apiURL
		}
	}
}

// WithUserAgents with user agent pool option, accepts values joined by "|"
func WithUserAgents(userAgents ...string) Option {
	return func(s *E621Searcher) {
		var pool []string
		for _, raw := range userAgents {
			for _, ua := range strings.Split(raw, "|") {
				if ua = strings.TrimSpace(ua); ua != "" {
					pool = append(pool, ua)
				}
			}
		}
		if len(userAgents) > 0 {
			s.UserAgents = pool
		}
	}
}

// WithLogger with logger option
func WithLogger(logger *zap.Logger) Option {
	return func(s *E621Searcher) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// WithRand with random index source option
func WithRand(fn func(n int) int) Option {
	return func(s *E621Searcher) {
		if fn != nil {
			s.rand = fn
		}
	}
}
