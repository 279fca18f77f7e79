package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a JSON or YAML file over the defaults, applies QB_*
// environment overrides and validates the result
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := NewValidator().Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile decodes by extension; unknown extensions are tried as YAML,
// which also accepts JSON
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("could not parse JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("could not parse YAML config: %w", err)
		}
	}
	return nil
}

// Save writes the configuration as JSON or YAML depending on the extension
func Save(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnvOverrides replaces fields with any QB_* variables that are set
func (c *Config) ApplyEnvOverrides() error {
	if v, ok := lookupEnv(EnvDataFile); ok {
		c.DataFile = v
	}
	if v, ok := lookupEnv(EnvLogLevel); ok {
		c.Logging.Level = v
	}
	if v, ok := lookupEnv(EnvLogDir); ok {
		c.Logging.Dir = v
	}
	if v, ok := lookupEnv(EnvOutputDir); ok {
		c.Output.Dir = v
	}
	if v, ok := lookupEnv(EnvMetricsAddr); ok {
		c.Metrics.Addr = v
		c.Metrics.Enabled = true
	}

	floats := []struct {
		name   string
		target *float64
	}{
		{EnvInitialCapital, &c.Backtest.InitialCapital},
		{EnvCommission, &c.Backtest.Commission},
		{EnvSlippage, &c.Backtest.Slippage},
		{EnvRiskFreeRate, &c.Backtest.RiskFreeRate},
	}
	for _, f := range floats {
		v, ok := lookupEnv(f.name)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.target = parsed
	}

	if v, ok := lookupEnv(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}

	// the optimizer shares the engine's risk-free rate unless set explicitly
	if _, ok := lookupEnv(EnvRiskFreeRate); ok {
		c.Portfolio.Optimizer.RiskFreeRate = c.Backtest.RiskFreeRate
	}
	return nil
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
