package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RouteConfig is the rate-limit tier for one route prefix.
type RouteConfig struct {
	Path   string        // route path; a trailing "/" enables prefix matching
	Method string        // HTTP method
	Limit  int           // requests per window; <= 0 means unlimited
	Window time.Duration // refill window
	Burst  int           // burst capacity, defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	Routes          []RouteConfig
}

func defaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		Routes:          DefaultRouteConfigs(),
	}
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	if !getEnvBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		Routes:          DefaultRouteConfigs(),
	}
}

// DefaultRouteConfigs returns the per-route tiers. Observation submission is
// the high-traffic write path; schedule registration is rare and stricter.
// Snapshot and audit reads fall through to the default limit.
func DefaultRouteConfigs() []RouteConfig {
	return []RouteConfig{
		{Path: "/projects/", Method: "POST", Limit: 600, Window: time.Minute, Burst: 60},
		{Path: "/health", Method: "GET", Limit: 0}, // unlimited
	}
}

// matchRoute matches a request to a route tier: exact match first, then
// prefix match for paths ending in "/".
func matchRoute(path, method string, routes []RouteConfig) *RouteConfig {
	for i := range routes {
		if routes[i].Path == path && (routes[i].Method == method || routes[i].Method == "") {
			return &routes[i]
		}
	}
	for i := range routes {
		if routes[i].Method == method && strings.HasSuffix(routes[i].Path, "/") && strings.HasPrefix(path, routes[i].Path) {
			return &routes[i]
		}
	}
	return nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
