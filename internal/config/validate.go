package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := c.Broker.validate("broker"); err != nil {
		return err
	}

	if c.Pool.MaxSize < 1 {
		return errors.New("pool.max_size must be >= 1")
	}
	if c.Pool.MaxSize > math.MaxInt32 {
		return fmt.Errorf("pool.max_size must be <= %d", math.MaxInt32)
	}
	if c.Pool.MinIdle < 0 {
		return errors.New("pool.min_idle must be >= 0")
	}
	if c.Pool.MinIdle > c.Pool.MaxSize {
		return fmt.Errorf("pool.min_idle (%d) cannot exceed max_size (%d)", c.Pool.MinIdle, c.Pool.MaxSize)
	}
	if c.Pool.ConnectionTimeout < 0 {
		return errors.New("pool.connection_timeout must be >= 0")
	}
	if c.Pool.HealthCheckPeriod < 0 {
		return errors.New("pool.health_check_period must be >= 0")
	}

	if c.Check.Workers < 1 {
		return errors.New("check.workers must be >= 1")
	}
	if c.Check.Hold < 0 {
		return errors.New("check.hold must be >= 0")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	return nil
}

func (b *BrokerConfig) validate(prefix string) error {
	if b.URL != "" {
		u, err := url.Parse(b.URL)
		if err != nil {
			return fmt.Errorf("%s.url is invalid: %w", prefix, err)
		}
		if u.Scheme != "amqp" && u.Scheme != "amqps" {
			return fmt.Errorf("%s.url scheme must be amqp or amqps, got %q", prefix, u.Scheme)
		}
	} else {
		if b.Host == "" {
			return fmt.Errorf("%s.host is required", prefix)
		}
		if b.Port < 1 || b.Port > 65535 {
			return fmt.Errorf("%s.port must be between 1 and 65535, got %d", prefix, b.Port)
		}
	}
	if b.Heartbeat < 0 {
		return fmt.Errorf("%s.heartbeat must be >= 0", prefix)
	}
	if b.FrameSize < 0 {
		return fmt.Errorf("%s.frame_size must be >= 0", prefix)
	}
	return nil
}
