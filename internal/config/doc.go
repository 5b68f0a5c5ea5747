// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// AMQP_ADDR, when set, overrides the broker address (see ApplyEnv).
package config
