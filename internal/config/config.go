// Package config loads presskit settings from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gitrdm/presskit/pkg/ilp"
	"github.com/gitrdm/presskit/pkg/orchestrator"
)

// DefaultScaleLimit is the largest counter state space, Π(target_j+1), for
// which uniform-cost search runs alongside the integer program.
const DefaultScaleLimit = orchestrator.DefaultScaleLimit

// Config holds every presskit setting. Zero bounds mean "derive from the
// machine".
type Config struct {
	// Workers bounds concurrent machine solves. 0 means runtime.NumCPU().
	Workers int `yaml:"workers"`

	Search        SearchConfig        `yaml:"search"`
	Optimizer     OptimizerConfig     `yaml:"optimizer"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// SearchConfig configures uniform-cost search.
type SearchConfig struct {
	ToggleBound  int  `yaml:"toggle_bound"`
	CounterBound int  `yaml:"counter_bound"`
	ScaleLimit   int  `yaml:"scale_limit"`
	VerifyToggle bool `yaml:"verify_toggle"`
}

// OptimizerConfig configures the integer-program backend.
type OptimizerConfig struct {
	// Backend is "lp", "fd" or "pb".
	Backend    string        `yaml:"backend"`
	PressLimit int           `yaml:"press_limit"`
	NodeLimit  int           `yaml:"node_limit"`
	TimeLimit  time.Duration `yaml:"time_limit"`
}

// ObservabilityConfig configures logging and metrics.
type ObservabilityConfig struct {
	LogLevel string `yaml:"log_level"`
	Metrics  bool   `yaml:"metrics"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Search:        SearchConfig{ScaleLimit: DefaultScaleLimit},
		Optimizer:     OptimizerConfig{Backend: string(ilp.BackendLP)},
		Observability: ObservabilityConfig{LogLevel: "info"},
	}
}

// Load starts from Default, merges the YAML file at path if it exists,
// applies PRESSKIT_* environment overrides and validates the result. An
// empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := loadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("load config env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"PRESSKIT_WORKERS", &cfg.Workers},
		{"PRESSKIT_TOGGLE_BOUND", &cfg.Search.ToggleBound},
		{"PRESSKIT_COUNTER_BOUND", &cfg.Search.CounterBound},
		{"PRESSKIT_SCALE_LIMIT", &cfg.Search.ScaleLimit},
		{"PRESSKIT_PRESS_LIMIT", &cfg.Optimizer.PressLimit},
		{"PRESSKIT_NODE_LIMIT", &cfg.Optimizer.NodeLimit},
	}
	for _, e := range ints {
		if v := os.Getenv(e.key); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = i
		}
	}
	if v := os.Getenv("PRESSKIT_TIME_LIMIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PRESSKIT_TIME_LIMIT: %w", err)
		}
		cfg.Optimizer.TimeLimit = d
	}
	if v := os.Getenv("PRESSKIT_OPTIMIZER"); v != "" {
		cfg.Optimizer.Backend = v
	}
	if v := os.Getenv("PRESSKIT_VERIFY_TOGGLE"); v != "" {
		cfg.Search.VerifyToggle = v == "true" || v == "1"
	}
	if v := os.Getenv("PRESSKIT_METRICS"); v != "" {
		cfg.Observability.Metrics = v == "true" || v == "1"
	}
	if v := os.Getenv("PRESSKIT_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	return nil
}

// Validate rejects negative limits and unknown optimizer backends.
func (c Config) Validate() error {
	checks := []struct {
		name string
		v    int
	}{
		{"workers", c.Workers},
		{"search.toggle_bound", c.Search.ToggleBound},
		{"search.counter_bound", c.Search.CounterBound},
		{"search.scale_limit", c.Search.ScaleLimit},
		{"optimizer.press_limit", c.Optimizer.PressLimit},
		{"optimizer.node_limit", c.Optimizer.NodeLimit},
	}
	for _, ch := range checks {
		if ch.v < 0 {
			return fmt.Errorf("%s must be >= 0, got %d", ch.name, ch.v)
		}
	}
	if c.Optimizer.TimeLimit < 0 {
		return fmt.Errorf("optimizer.time_limit must be >= 0, got %s", c.Optimizer.TimeLimit)
	}
	if _, err := ilp.ParseBackend(c.Optimizer.Backend); err != nil {
		return fmt.Errorf("optimizer.backend: %w", err)
	}
	return nil
}

// Orchestrator maps the settings onto a solver configuration. extra is
// appended to the optimizer options, e.g. ilp.WithMonitor. Logger and
// Observer are left for the caller.
func (c Config) Orchestrator(extra ...ilp.Option) (orchestrator.Config, error) {
	backend, err := ilp.ParseBackend(c.Optimizer.Backend)
	if err != nil {
		return orchestrator.Config{}, err
	}
	opts := append([]ilp.Option{
		ilp.WithNodeLimit(c.Optimizer.NodeLimit),
		ilp.WithTimeLimit(c.Optimizer.TimeLimit),
	}, extra...)
	opt, err := ilp.NewOptimizer(backend, opts...)
	if err != nil {
		return orchestrator.Config{}, err
	}
	return orchestrator.Config{
		ToggleBound:  c.Search.ToggleBound,
		CounterBound: c.Search.CounterBound,
		PressLimit:   c.Optimizer.PressLimit,
		ScaleLimit:   c.Search.ScaleLimit,
		VerifyToggle: c.Search.VerifyToggle,
		Workers:      c.Workers,
		Optimizer:    opt,
	}, nil
}
