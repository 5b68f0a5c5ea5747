package pool

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrClosed = errors.New("pool is closed")

	errBroken = errors.New("connection is broken")
)

// Manager creates and classifies the resources held by a Pool.
type Manager[T any] interface {
	// Connect creates a new resource.
	Connect(ctx context.Context) (T, error)

	// IsValid returns an error if the resource must not be handed out.
	IsValid(conn T) error

	// HasBroken reports whether the resource can never be used again.
	HasBroken(conn T) bool
}

// Config configures a Pool.
type Config struct {
	MaxSize           int32         // Maximum number of open resources
	MinIdle           int           // Idle resources Warm tops the pool up to
	ConnectionTimeout time.Duration // Bound on Get (0 = caller's context only)
	SkipValidation    bool          // Skip IsValid on checkout
	HealthCheckPeriod time.Duration // Sweep interval (0 = no background sweep)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxSize:           10,
		ConnectionTimeout: 30 * time.Second,
		HealthCheckPeriod: 30 * time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxSize < 1 {
		return errors.New("max size must be >= 1")
	}
	if c.MinIdle < 0 {
		return errors.New("min idle must be >= 0")
	}
	if c.MinIdle > int(c.MaxSize) {
		return fmt.Errorf("min idle (%d) cannot exceed max size (%d)", c.MinIdle, c.MaxSize)
	}
	if c.ConnectionTimeout < 0 {
		return errors.New("connection timeout must be >= 0")
	}
	if c.HealthCheckPeriod < 0 {
		return errors.New("health check period must be >= 0")
	}
	return nil
}

// Stat is a snapshot of pool statistics.
type Stat struct {
	Total        int32
	Idle         int32
	Acquired     int32
	Constructing int32
	Max          int32

	AcquireCount         int64
	EmptyAcquireCount    int64
	CanceledAcquireCount int64
	Evicted              int64
}
