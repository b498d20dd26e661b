// Package server implements the per-connection state machine (spec
// §4.6, component C6), its structured logging (SPEC_FULL.md §4.A,
// component C9), and its typed configuration (SPEC_FULL.md §4.C,
// component C10).
package server

import (
	"crypto/tls"
	"time"

	"go.uber.org/zap"

	"github.com/badu/meander/router"
	"github.com/badu/meander/wire"
)

// Config carries everything the connection loop needs beyond the route
// table: timeouts, size limits, and an optional TLS context (spec §6:
// "the core only receives a configured TLS context"). Built the way
// bolt/core.Config / DefaultConfig() assembles a plain struct through
// functional options, per SPEC_FULL.md §4.C.
type Config struct {
	Name   string
	Addr   string
	Limits wire.Limits
	TLS    *tls.Config
	Logger *Logger
}

// DefaultConfig returns a Config with wire.DefaultLimits() and a
// no-op-safe zap logger; callers override via Option.
func DefaultConfig(name, addr string) Config {
	zl, _ := zap.NewProduction()
	return Config{
		Name:   name,
		Addr:   addr,
		Limits: wire.DefaultLimits(),
		Logger: NewLogger(zl.Sugar()),
	}
}

// Option mutates a Config at construction time.
type Option func(*Config)

// WithName overrides the server's name as reported by the open/close
// log lines.
func WithName(name string) Option {
	return func(c *Config) { c.Name = name }
}

// WithAddr overrides the listen address used by ListenAndServe.
func WithAddr(addr string) Option {
	return func(c *Config) { c.Addr = addr }
}

// WithIdleTimeout overrides the IDLE-state read deadline (spec §4.6).
func WithIdleTimeout(d time.Duration) Option {
	return func(c *Config) { c.Limits.IdleTimeout = d }
}

// WithActiveTimeout overrides the READING-state read deadline.
func WithActiveTimeout(d time.Duration) Option {
	return func(c *Config) { c.Limits.ActiveTimeout = d }
}

// WithMaxHeaderCount overrides the maximum header line count before a
// request fails with 431-adjacent behavior (431 is only for oversized
// lines; too many headers is a 400 per parser.parseHeaderBlock).
func WithMaxHeaderCount(n int) Option {
	return func(c *Config) { c.Limits.MaxHeaderCount = n }
}

// WithMaxContentLength overrides the 413 threshold.
func WithMaxContentLength(n int64) Option {
	return func(c *Config) { c.Limits.MaxContentLength = n }
}

// WithMaxLineLength overrides the 431 threshold.
func WithMaxLineLength(n int) Option {
	return func(c *Config) { c.Limits.MaxLineLength = n }
}

// WithTLS attaches a pre-built TLS context; the certificate/key loader
// itself stays an external collaborator per spec §6.
func WithTLS(cfg *tls.Config) Option {
	return func(c *Config) { c.TLS = cfg }
}

// WithLogger overrides the structured logger.
func WithLogger(l *Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// Apply folds opts onto a base Config and returns the result.
func Apply(base Config, opts ...Option) Config {
	for _, opt := range opts {
		opt(&base)
	}
	return base
}

// Table is re-exported so callers building a Server don't need to
// import router directly for the common case.
type Table = router.Table
