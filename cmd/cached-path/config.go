package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds the defaults the CLI falls back to when a flag is not
// given explicitly. Mirrors the Cache builder's scalar tunables (directory,
// timeouts, retries, freshness, offline); the builder's client, progress
// sink, logger and metrics options have no config-file counterpart.
type Config struct {
	Dir               string `yaml:"dir"`
	ConnectTimeout    int    `yaml:"connect_timeout"` // seconds
	MaxRetries        int    `yaml:"max_retries"`
	MaxBackoff        int    `yaml:"max_backoff"` // seconds
	FreshnessLifetime int    `yaml:"freshness_lifetime"` // seconds
	Offline           bool   `yaml:"offline"`
}

// ReadConfig loads path as YAML, applying CACHED_PATH_DIR as an override
// for Dir (e.g. for containerized deployments that mount a cache volume),
// same as the environment-variable override the teacher repo honors for
// its own cache directory setting. A missing file is not an error: the
// CLI runs entirely on flag defaults in that case.
func ReadConfig(path string) (*Config, error) {
	config := &Config{
		MaxRetries: 3,
		MaxBackoff: 5,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(config), nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return applyEnv(config), nil
}

func applyEnv(config *Config) *Config {
	if dir := os.Getenv("CACHED_PATH_DIR"); dir != "" {
		config.Dir = dir
	}
	return config
}

func (c *Config) connectTimeoutDuration() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Second
}

func (c *Config) maxBackoffDuration() time.Duration {
	return time.Duration(c.MaxBackoff) * time.Second
}

func (c *Config) freshnessLifetimeDuration() time.Duration {
	return time.Duration(c.FreshnessLifetime) * time.Second
}
