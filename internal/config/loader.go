package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvAddr overrides broker.url when set.
const EnvAddr = "AMQP_ADDR"

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data after expanding ${VAR} environment variables.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config, applies AMQP_ADDR and default values.
// An empty path skips the file and starts from an empty config.
func LoadWithDefaults(path string) (*Config, error) {
	return LoadWithAddr(path, "")
}

// LoadWithAddr is LoadWithDefaults with a broker URL that takes precedence over
// both the file and AMQP_ADDR. An empty addr is ignored.
func LoadWithAddr(path, addr string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		var err error
		cfg, err = Load(path)
		if err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	if addr != "" {
		cfg.Broker.URL = addr
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv replaces broker.url with AMQP_ADDR when it is set.
func (c *Config) ApplyEnv() {
	if addr := os.Getenv(EnvAddr); addr != "" {
		c.Broker.URL = addr
	}
}
