package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/rickgao/amqppool/pool"
)

// Config is the root configuration for an amqppool deployment.
type Config struct {
	Broker  BrokerConfig  `yaml:"broker"`
	Pool    PoolConfig    `yaml:"pool"`
	Check   CheckConfig   `yaml:"check"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// BrokerConfig holds the AMQP broker address and connection options.
// URL takes precedence over the individual address fields.
type BrokerConfig struct {
	URL            string        `yaml:"url"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	Vhost          string        `yaml:"vhost"`
	Heartbeat      time.Duration `yaml:"heartbeat"`
	ChannelMax     uint16        `yaml:"channel_max"` // 0 = server limit
	FrameSize      int           `yaml:"frame_size"`  // 0 = server limit
	Locale         string        `yaml:"locale"`
	ConnectionName string        `yaml:"connection_name"` // Shown in the broker's management UI
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxSize           int           `yaml:"max_size"`
	MinIdle           int           `yaml:"min_idle"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
	SkipValidation    bool          `yaml:"skip_validation"`
	HealthCheckPeriod time.Duration `yaml:"health_check_period"`
}

// CheckConfig holds settings for the amqpcheck tool.
type CheckConfig struct {
	Workers int           `yaml:"workers"` // Concurrent checkouts
	Hold    time.Duration `yaml:"hold"`    // How long each checkout is held
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Settings converts the pool section into pool.Config.
func (p PoolConfig) Settings() pool.Config {
	return pool.Config{
		MaxSize:           int32(p.MaxSize),
		MinIdle:           p.MinIdle,
		ConnectionTimeout: p.ConnectionTimeout,
		SkipValidation:    p.SkipValidation,
		HealthCheckPeriod: p.HealthCheckPeriod,
	}
}

// SlogLevel returns the configured level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
