package ratelimit

import (
	"math"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// NewConfig builds a limiter configuration from a steady request rate and burst.
// The default limit is expressed per minute; endpoint tiers keep their own budgets.
// GET /health, GET /metrics and any extra exempt paths are never limited.
func NewConfig(enabled bool, requestsPerSecond float64, burst int, exempt ...string) *Config {
	if !enabled {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    int(math.Ceil(requestsPerSecond * 60)),
		DefaultWindow:   time.Minute,
		DefaultBurst:    burst,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		Exempt:          toSet(append([]string{"/health", "/metrics"}, exempt...)),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: Starting a session scores a whole candidate pool
		{Path: "/match/run", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},

		// Tier 2: Writes and exports
		{Path: "/match/sessions/", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/match/sessions/", Method: "DELETE", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/match/results/", Method: "GET", Limit: 120, Window: time.Minute, Burst: 20},

		// Tier 3: Status polling and listings are handled by the default limit
		// Tier 4: Health and metrics are exempt, see Config.Exempt
	}
}

// ParseIPList turns a list of addresses into a lookup set, skipping empties.
func ParseIPList(ips []string) map[string]bool {
	return toSet(ips)
}

func toSet(items []string) map[string]bool {
	result := make(map[string]bool, len(items))
	for _, item := range items {
		if item != "" {
			result[item] = true
		}
	}
	return result
}
