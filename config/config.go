package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
)

// Config represents a complete backtest configuration
type Config struct {
	Data     DataConfig     `json:"data" yaml:"data"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// DataConfig points at the bar feed
type DataConfig struct {
	Path      string `json:"path" yaml:"path"`                               // CSV or .parquet
	Timeframe string `json:"timeframe,omitempty" yaml:"timeframe,omitempty"` // bar spacing for gap checks, e.g. "H1"
}

// StrategyConfig selects a registered strategy and its parameters
type StrategyConfig struct {
	Name    string   `json:"name" yaml:"name"`
	Fast    int      `json:"fast,omitempty" yaml:"fast,omitempty"`
	Slow    int      `json:"slow,omitempty" yaml:"slow,omitempty"`
	Signals []string `json:"signals,omitempty" yaml:"signals,omitempty"`
}

// BacktestConfig contains simulation parameters
type BacktestConfig struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	Fee            float64 `json:"fee" yaml:"fee"`                                             // per side, 0.001 == 0.1%
	FeeBasis       string  `json:"fee_basis,omitempty" yaml:"fee_basis,omitempty"`             // "notional" or "current-equity"
	Sampling       string  `json:"sampling,omitempty" yaml:"sampling,omitempty"`               // "per-bar" or "legacy"
	RollingWindow  int     `json:"rolling_window,omitempty" yaml:"rolling_window,omitempty"`   // hours
	Workers        int     `json:"workers,omitempty" yaml:"workers,omitempty"`                 // sweep parallelism
	Verbose        bool    `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type   string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	OrgDir string `json:"org_dir,omitempty" yaml:"org_dir,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML or JSON based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Data.Path == "" {
		return fmt.Errorf("data.path is required")
	}
	if _, err := market.ParseTimeframe(c.Data.Timeframe); err != nil {
		return fmt.Errorf("data.timeframe: %w", err)
	}
	if _, err := c.Factory(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if !(c.Backtest.InitialCapital > 0) {
		return fmt.Errorf("backtest.initial_capital must be positive")
	}
	if !(c.Backtest.Fee >= 0 && c.Backtest.Fee < 1) {
		return fmt.Errorf("backtest.fee must be in [0, 1)")
	}
	if _, err := backtest.ParseFeeBasis(c.Backtest.FeeBasis); err != nil {
		return fmt.Errorf("backtest.fee_basis: %w", err)
	}
	if _, err := backtest.ParseSampling(c.Backtest.Sampling); err != nil {
		return fmt.Errorf("backtest.sampling: %w", err)
	}
	if c.Backtest.RollingWindow < 0 {
		return fmt.Errorf("backtest.rolling_window must not be negative")
	}
	if c.Backtest.Workers < 0 {
		return fmt.Errorf("backtest.workers must not be negative")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal dir required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Params returns the strategy parameters.
func (c *Config) Params() strategies.Params {
	return strategies.Params{
		Fast:    c.Strategy.Fast,
		Slow:    c.Strategy.Slow,
		Signals: c.Strategy.Signals,
	}
}

// Factory resolves the configured strategy.
func (c *Config) Factory() (strategies.Factory, error) {
	if c.Strategy.Name == "" {
		return nil, fmt.Errorf("strategy.name is required")
	}
	return strategies.ByName(c.Strategy.Name, c.Params())
}

// Options converts the backtest section into run options. Call Validate
// first; unparseable enum values fall back to their defaults.
func (c *Config) Options() backtest.Options {
	basis, _ := backtest.ParseFeeBasis(c.Backtest.FeeBasis)
	sampling, _ := backtest.ParseSampling(c.Backtest.Sampling)

	opts := backtest.DefaultOptions()
	opts.InitialCapital = c.Backtest.InitialCapital
	opts.Fee = c.Backtest.Fee
	opts.FeeBasis = basis
	opts.Sampling = sampling
	opts.Verbose = c.Backtest.Verbose
	if c.Backtest.RollingWindow > 0 {
		opts.RollingWindow = c.Backtest.RollingWindow
	}
	return opts
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Path:      "./data/btc_usd_1h.csv",
			Timeframe: "H1",
		},
		Strategy: StrategyConfig{
			Name: "sma-cross",
			Fast: 24,
			Slow: 168,
		},
		Backtest: BacktestConfig{
			InitialCapital: 10000,
			Fee:            0.001,
			FeeBasis:       "notional",
			Sampling:       "per-bar",
			RollingWindow:  backtest.DefaultRollingWindow,
		},
		Journal: JournalConfig{
			Type: "none",
		},
	}
}
