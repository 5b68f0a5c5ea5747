package config

import (
	"time"

	"github.com/google/uuid"
)

// Default values for optional configuration fields.
const (
	DefaultHost              = "127.0.0.1"
	DefaultPort              = 5672
	DefaultUser              = "guest"
	DefaultPassword          = "guest"
	DefaultVhost             = "/"
	DefaultHeartbeat         = 10 * time.Second
	DefaultLocale            = "en_US"
	DefaultConnectionPrefix  = "amqppool-"
	DefaultMaxSize           = 10
	DefaultConnectionTimeout = 30 * time.Second
	DefaultHealthCheckPeriod = 30 * time.Second
	DefaultCheckWorkers      = 20
	DefaultMetricsPort       = 9090
	DefaultMetricsPath       = "/metrics"
	DefaultLogLevel          = "info"
)

func (c *Config) applyDefaults() {
	// Broker defaults (address parts only matter without a URL)
	if c.Broker.URL == "" {
		if c.Broker.Host == "" {
			c.Broker.Host = DefaultHost
		}
		if c.Broker.Port == 0 {
			c.Broker.Port = DefaultPort
		}
		if c.Broker.User == "" {
			c.Broker.User = DefaultUser
			if c.Broker.Password == "" {
				c.Broker.Password = DefaultPassword
			}
		}
		if c.Broker.Vhost == "" {
			c.Broker.Vhost = DefaultVhost
		}
	}
	if c.Broker.Heartbeat == 0 {
		c.Broker.Heartbeat = DefaultHeartbeat
	}
	if c.Broker.Locale == "" {
		c.Broker.Locale = DefaultLocale
	}
	if c.Broker.ConnectionName == "" {
		c.Broker.ConnectionName = DefaultConnectionPrefix + uuid.NewString()[:8]
	}

	// Pool defaults
	if c.Pool.MaxSize == 0 {
		c.Pool.MaxSize = DefaultMaxSize
	}
	if c.Pool.ConnectionTimeout == 0 {
		c.Pool.ConnectionTimeout = DefaultConnectionTimeout
	}
	if c.Pool.HealthCheckPeriod == 0 {
		c.Pool.HealthCheckPeriod = DefaultHealthCheckPeriod
	}

	// Check defaults
	if c.Check.Workers == 0 {
		c.Check.Workers = DefaultCheckWorkers
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
