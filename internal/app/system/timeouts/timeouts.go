// Package timeouts provides centralized timeout budgets for handler
// operations. Two tiers are enough for this service: quick backend probes
// and the request window for structural tree work.
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	// DefaultPing bounds backend health probes (Mongo ping, blob root stat).
	DefaultPing = 2 * time.Second

	// DefaultLong bounds a whole request. Subtree renames and confirmed
	// deletes touch many rows plus the physical tree, so this is the
	// router-wide budget.
	DefaultLong = 30 * time.Second
)

// mu protects the timeout values from concurrent access.
var mu sync.RWMutex

var (
	ping = DefaultPing
	long = DefaultLong
)

// Ping returns the timeout for backend health probes.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Long returns the request-level timeout for structural operations.
func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return long
}

// Config holds timeout configuration values.
type Config struct {
	Ping time.Duration
	Long time.Duration
}

// Configure sets custom timeout values. Zero fields keep the current value.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Long > 0 {
		long = cfg.Long
	}
}

// ConfigureFromEnv reads timeout overrides from TEACHDRIVE_TIMEOUT_PING and
// TEACHDRIVE_TIMEOUT_LONG (Go duration syntax). It returns how many values
// were applied.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	configured := 0

	if v := os.Getenv("TEACHDRIVE_TIMEOUT_PING"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			ping = d
			configured++
		}
	}
	if v := os.Getenv("TEACHDRIVE_TIMEOUT_LONG"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			long = d
			configured++
		}
	}

	return configured
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Long: long}
}

// WithTimeout creates a context with the given timeout that logs a warning
// when the deadline was the reason the operation ended.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
