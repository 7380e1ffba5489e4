// Package config provides configuration management for the screener.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/eddiefleurent/downtrend_puts/internal/models"
	"github.com/eddiefleurent/downtrend_puts/internal/nse"
	"github.com/eddiefleurent/downtrend_puts/internal/strategy"
	"github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v3"
)

// DefaultPath is read when no config file is named.
const DefaultPath = "config.yaml"

// Config represents the complete application configuration.
type Config struct {
	Environment    EnvironmentConfig    `yaml:"environment"`
	Market         MarketConfig         `yaml:"market"`
	Selection      SelectionConfig      `yaml:"selection"`
	Runner         RunnerConfig         `yaml:"runner"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// EnvironmentConfig defines the environment settings.
type EnvironmentConfig struct {
	LogLevel  string `yaml:"log_level"`  // debug | info | warn | error
	LogFormat string `yaml:"log_format"` // text | json
}

// MarketConfig defines where market pages are fetched from and how they are laid out.
type MarketConfig struct {
	IndexURL       string        `yaml:"index_url"`
	HistoryURL     string        `yaml:"history_url"`
	OptionChainURL string        `yaml:"option_chain_url"`
	LotSizeURL     string        `yaml:"lot_size_url"`
	OptionTableID  string        `yaml:"option_table_id"`
	LotSizeTableID string        `yaml:"lot_size_table_id"`
	AnchorClass    string        `yaml:"anchor_class"`
	CellClass      string        `yaml:"cell_class"`
	Timeout        time.Duration `yaml:"timeout"`
	UserAgent      string        `yaml:"user_agent"`
	HistoryWindow  string        `yaml:"history_window"` // datePeriod of the history page
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

// SelectionConfig defines the option selection thresholds.
type SelectionConfig struct {
	Side            string                    `yaml:"side"` // PUT | CALL
	LiquidityFloor  int                       `yaml:"liquidity_floor"`
	VolatilityBands []strategy.VolatilityBand `yaml:"volatility_bands"`
	// WeekAdjustments is merged over the defaults; set a week to 0 to disable it.
	WeekAdjustments map[int]int `yaml:"week_adjustments"`
}

// RunnerConfig defines how a screening run is executed.
type RunnerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// CircuitBreakerConfig configures the breaker in front of the market site.
type CircuitBreakerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	MaxRequests  uint32        `yaml:"max_requests"`
	Interval     time.Duration `yaml:"interval"`
	Timeout      time.Duration `yaml:"timeout"`
	MinRequests  uint32        `yaml:"min_requests"`
	FailureRatio float64       `yaml:"failure_ratio"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	endpoints := nse.DefaultEndpoints()
	layout := nse.DefaultLayout()
	selection := strategy.DefaultSelectionConfig()
	breaker := nse.DefaultCircuitBreakerSettings()

	weeks := make(map[int]int, len(selection.WeekAdjustments))
	for week, points := range selection.WeekAdjustments {
		weeks[week] = points
	}

	return &Config{
		Environment: EnvironmentConfig{
			LogLevel:  "info",
			LogFormat: "text",
		},
		Market: MarketConfig{
			IndexURL:       endpoints.IndexURL,
			HistoryURL:     endpoints.HistoryURL,
			OptionChainURL: endpoints.OptionChainURL,
			LotSizeURL:     endpoints.LotSizeURL,
			OptionTableID:  layout.OptionTableID,
			LotSizeTableID: layout.LotSizeTableID,
			AnchorClass:    layout.AnchorClass,
			CellClass:      layout.CellClass,
			Timeout:        nse.DefaultTimeout,
			UserAgent:      nse.DefaultUserAgent,
			HistoryWindow:  strategy.DefaultHistoryWindow,
		},
		Selection: SelectionConfig{
			Side:            string(selection.Side),
			LiquidityFloor:  selection.LiquidityFloor,
			VolatilityBands: append([]strategy.VolatilityBand(nil), selection.VolatilityBands...),
			WeekAdjustments: weeks,
		},
		Runner: RunnerConfig{
			Concurrency: 1,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:      true,
			MaxRequests:  breaker.MaxRequests,
			Interval:     breaker.Interval,
			Timeout:      breaker.Timeout,
			MinRequests:  breaker.MinRequests,
			FailureRatio: breaker.FailureRatio,
		},
	}
}

// Load reads the configuration file at configPath over the defaults.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	config := Default()
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// Validate checks that all configuration values are valid and consistent.
func (c *Config) Validate() error {
	// Environment validation
	if _, err := logrus.ParseLevel(c.Environment.LogLevel); err != nil {
		return fmt.Errorf("environment.log_level invalid: %w", err)
	}
	if c.Environment.LogFormat != "text" && c.Environment.LogFormat != "json" {
		return fmt.Errorf("environment.log_format must be 'text' or 'json'")
	}

	// Market validation
	for name, raw := range map[string]string{
		"index_url":        c.Market.IndexURL,
		"history_url":      c.Market.HistoryURL,
		"option_chain_url": c.Market.OptionChainURL,
		"lot_size_url":     c.Market.LotSizeURL,
	} {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("market.%s invalid: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("market.%s must be an absolute http(s) URL", name)
		}
	}
	if c.Market.OptionTableID == "" || c.Market.LotSizeTableID == "" {
		return fmt.Errorf("market.option_table_id and market.lot_size_table_id are required")
	}
	if c.Market.AnchorClass == "" || c.Market.CellClass == "" {
		return fmt.Errorf("market.anchor_class and market.cell_class are required")
	}
	if c.Market.Timeout <= 0 {
		return fmt.Errorf("market.timeout must be > 0")
	}
	if c.Market.CacheTTL < 0 {
		return fmt.Errorf("market.cache_ttl must be >= 0")
	}
	if strings.TrimSpace(c.Market.HistoryWindow) == "" {
		return fmt.Errorf("market.history_window is required")
	}

	// Selection validation
	selection, err := c.SelectionConfig()
	if err != nil {
		return err
	}
	if err := selection.Validate(); err != nil {
		return fmt.Errorf("selection: %w", err)
	}

	// Runner validation
	if c.Runner.Concurrency < 1 {
		return fmt.Errorf("runner.concurrency must be >= 1")
	}

	// Circuit breaker validation
	if c.CircuitBreaker.Enabled {
		if c.CircuitBreaker.FailureRatio <= 0 || c.CircuitBreaker.FailureRatio > 1 {
			return fmt.Errorf("circuit_breaker.failure_ratio must be in (0,1]")
		}
		if c.CircuitBreaker.MinRequests == 0 {
			return fmt.Errorf("circuit_breaker.min_requests must be > 0")
		}
		if c.CircuitBreaker.Timeout <= 0 {
			return fmt.Errorf("circuit_breaker.timeout must be > 0")
		}
	}

	return nil
}

// NSEOptions returns the market client options.
func (c *Config) NSEOptions() nse.Options {
	return nse.Options{
		Endpoints: nse.Endpoints{
			IndexURL:       c.Market.IndexURL,
			HistoryURL:     c.Market.HistoryURL,
			OptionChainURL: c.Market.OptionChainURL,
			LotSizeURL:     c.Market.LotSizeURL,
		},
		Layout: nse.Layout{
			OptionTableID:  c.Market.OptionTableID,
			LotSizeTableID: c.Market.LotSizeTableID,
			AnchorClass:    c.Market.AnchorClass,
			CellClass:      c.Market.CellClass,
		},
		Timeout:   c.Market.Timeout,
		UserAgent: c.Market.UserAgent,
		CacheTTL:  c.Market.CacheTTL,
	}
}

// SelectionConfig returns the selection thresholds.
func (c *Config) SelectionConfig() (strategy.SelectionConfig, error) {
	side, err := models.ParseSide(c.Selection.Side)
	if err != nil {
		return strategy.SelectionConfig{}, fmt.Errorf("selection.side: %w", err)
	}
	return strategy.SelectionConfig{
		Side:            side,
		LiquidityFloor:  c.Selection.LiquidityFloor,
		VolatilityBands: c.Selection.VolatilityBands,
		WeekAdjustments: c.Selection.WeekAdjustments,
	}, nil
}

// BreakerSettings returns the circuit breaker settings.
func (c *Config) BreakerSettings() nse.CircuitBreakerSettings {
	return nse.CircuitBreakerSettings{
		MaxRequests:  c.CircuitBreaker.MaxRequests,
		Interval:     c.CircuitBreaker.Interval,
		Timeout:      c.CircuitBreaker.Timeout,
		MinRequests:  c.CircuitBreaker.MinRequests,
		FailureRatio: c.CircuitBreaker.FailureRatio,
	}
}

// Logger builds the process logger from the environment section.
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(c.Environment.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if c.Environment.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
