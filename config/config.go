// Package config loads retry profiles and rate-limit rules from TOML.
//
// Call sites reference profiles by name so retry tuning lives in one
// reviewed file instead of scattered literals:
//
//	[retry.db_write]
//	max_retries = 3
//	initial_delay = "1s"
//	max_delay = "10s"
//	base = 2.0
//	jitter = true
//	retry_on = ["connection_reset", "deadline_exceeded", "service_unavailable"]
//
//	[limits.quiz_submit]
//	max_requests = 5
//	window = "1m"
//
// Every retry profile is validated through retry.NewPolicy at load time;
// a bad value fails the load with the profile name in the error, long
// before any operation runs.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mindloop/resilience/errors"
	"github.com/mindloop/resilience/retry"
)

// Config holds named retry policies and rate-limit rules.
type Config struct {
	Retry  map[string]retry.Policy
	Limits map[string]LimitRule
}

// LimitRule is a per-action request budget.
type LimitRule struct {
	MaxRequests int64
	Window      time.Duration
}

// duration parses TOML duration strings like "500ms", "30s", "1m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// tomlConfig is the TOML representation. Pointer fields distinguish
// "unset, use the policy default" from an explicit zero.
type tomlConfig struct {
	Retry  map[string]tomlRetry `toml:"retry"`
	Limits map[string]tomlLimit `toml:"limits"`
}

type tomlRetry struct {
	MaxRetries   *int      `toml:"max_retries"`
	InitialDelay *duration `toml:"initial_delay"`
	MaxDelay     *duration `toml:"max_delay"`
	Base         *float64  `toml:"base"`
	Jitter       *bool     `toml:"jitter"`
	RetryOn      []string  `toml:"retry_on"`
}

type tomlLimit struct {
	MaxRequests int64     `toml:"max_requests"`
	Window      *duration `toml:"window"`
}

// LoadFile loads configuration from a TOML file.
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(string(content))
}

// Parse parses configuration from TOML content.
func Parse(content string) (*Config, error) {
	var raw tomlConfig
	if err := toml.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := &Config{
		Retry:  make(map[string]retry.Policy, len(raw.Retry)),
		Limits: make(map[string]LimitRule, len(raw.Limits)),
	}

	for name, rp := range raw.Retry {
		policy, err := buildPolicy(rp)
		if err != nil {
			return nil, fmt.Errorf("retry profile %q: %w", name, err)
		}
		cfg.Retry[name] = policy
	}

	for name, rl := range raw.Limits {
		if rl.MaxRequests <= 0 {
			return nil, fmt.Errorf("limit rule %q: max_requests must be > 0, got %d", name, rl.MaxRequests)
		}
		if rl.Window == nil || rl.Window.Duration <= 0 {
			return nil, fmt.Errorf("limit rule %q: window must be a positive duration", name)
		}
		cfg.Limits[name] = LimitRule{
			MaxRequests: rl.MaxRequests,
			Window:      rl.Window.Duration,
		}
	}

	return cfg, nil
}

func buildPolicy(rp tomlRetry) (retry.Policy, error) {
	var opts []retry.PolicyOption
	if rp.MaxRetries != nil {
		opts = append(opts, retry.WithMaxRetries(*rp.MaxRetries))
	}
	if rp.InitialDelay != nil {
		opts = append(opts, retry.WithInitialDelay(rp.InitialDelay.Duration))
	}
	if rp.MaxDelay != nil {
		opts = append(opts, retry.WithMaxDelay(rp.MaxDelay.Duration))
	}
	if rp.Base != nil {
		opts = append(opts, retry.WithBase(*rp.Base))
	}
	if rp.Jitter != nil {
		opts = append(opts, retry.WithJitter(*rp.Jitter))
	}
	if len(rp.RetryOn) > 0 {
		kinds := make([]errors.Kind, len(rp.RetryOn))
		for i, tag := range rp.RetryOn {
			kinds[i] = errors.Kind(tag)
		}
		opts = append(opts, retry.WithRetryOn(kinds...))
	}
	return retry.NewPolicy(opts...)
}

// Policy returns the named retry profile.
func (c *Config) Policy(name string) (retry.Policy, error) {
	p, ok := c.Retry[name]
	if !ok {
		return retry.Policy{}, fmt.Errorf("unknown retry profile %q", name)
	}
	return p, nil
}

// Limit returns the named rate-limit rule.
func (c *Config) Limit(name string) (LimitRule, error) {
	r, ok := c.Limits[name]
	if !ok {
		return LimitRule{}, fmt.Errorf("unknown limit rule %q", name)
	}
	return r, nil
}
