// Package server provides the Gin HTTP server, its standard middleware, health endpoints and
// lifecycle management.
package server

import "time"

// Fallbacks for zero-valued Config fields.
const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultCORSMaxAge      = 12 * time.Hour
)

// Config describes the listener, its timeouts and the identity reported by /health.
type Config struct {
	Port  int
	Debug bool

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// CORSOrigins lists browser origins allowed to call the API, "*" for any.
	// Empty disables CORS headers entirely.
	CORSOrigins []string
	CORSMaxAge  time.Duration

	ServiceName    string
	ServiceVersion string
}

func orDefault(d, def time.Duration) time.Duration {
	if d == 0 {
		return def
	}
	return d
}

// withDefaults returns a copy of c with zero durations and the version filled in.
func (c Config) withDefaults() Config {
	c.ReadTimeout = orDefault(c.ReadTimeout, DefaultReadTimeout)
	c.WriteTimeout = orDefault(c.WriteTimeout, DefaultWriteTimeout)
	c.IdleTimeout = orDefault(c.IdleTimeout, DefaultIdleTimeout)
	c.ShutdownTimeout = orDefault(c.ShutdownTimeout, DefaultShutdownTimeout)
	c.CORSMaxAge = orDefault(c.CORSMaxAge, DefaultCORSMaxAge)
	if c.ServiceVersion == "" {
		c.ServiceVersion = "dev"
	}
	return c
}
