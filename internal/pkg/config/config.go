package config

import (
	"io"
	"time"
)

// Config is the read-only view of runtime configuration used across the service.
//
// Keys are dotted paths ("modules.auth.otp.ttl_seconds"). Missing keys yield
// the zero value of the requested type; callers apply their own defaults.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64

	// GetSecond reads an integer value and scales it to seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer value and scales it to minutes.
	GetMinute(key string) time.Duration

	// GetArray reads a comma separated value ("a,b,c") or a YAML list.
	// Blank elements are dropped.
	GetArray(key string) []string

	// GetMap reads "k1:v1,k2:v2" pairs.
	GetMap(key string) map[string]string
}

// SecondOr returns the configured number of seconds for key, or def when unset.
func SecondOr(cfg Config, key string, def time.Duration) time.Duration {
	if cfg == nil {
		return def
	}
	if d := cfg.GetSecond(key); d > 0 {
		return d
	}
	return def
}

// FloatOr returns the configured float for key, or def when unset.
func FloatOr(cfg Config, key string, def float64) float64 {
	if cfg == nil {
		return def
	}
	if v := cfg.GetFloat64(key); v > 0 {
		return v
	}
	return def
}
