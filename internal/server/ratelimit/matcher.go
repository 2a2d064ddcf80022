package ratelimit

import (
	"net/http"
	"strings"
)

// MatchEndpoint returns the tier for a request, or nil when the default limit applies.
// An exact path wins over a prefix tier (a Path ending in "/").
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	var prefix *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method {
			continue
		}
		if c.Path == path {
			return c
		}
		if prefix == nil && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			prefix = c
		}
	}
	return prefix
}

// exempt reports whether a GET on path bypasses limiting, e.g. health probes and metric scrapes
func (c *Config) exempt(path, method string) bool {
	return method == http.MethodGet && c.Exempt[path]
}
