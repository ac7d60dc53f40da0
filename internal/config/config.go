// Package config loads and validates the YAML run configuration. Every
// numeric the pipeline depends on lives here rather than as a literal in
// the code that uses it.
package config

import (
	"errors"
	"fmt"
	"os"

	"arima-backtest/internal/forecast"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Series  SeriesConfig  `yaml:"series"`
	Model   ModelConfig   `yaml:"model"`
	Engine  EngineConfig  `yaml:"engine"`
	Costs   CostsConfig   `yaml:"costs"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig points the binaries at a price source. File may be CSV or JSON
// (decided by extension); Symbol and the API fields matter only for remote
// fetches.
type DataConfig struct {
	File    string `yaml:"file"`
	Column  string `yaml:"column" default:"close"`
	Symbol  string `yaml:"symbol"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type SeriesConfig struct {
	TrainFraction   float64 `yaml:"train_fraction" default:"0.7" validate:"gt=0,lt=1"`
	MinObservations int     `yaml:"min_observations" default:"30" validate:"gte=10"`
	Significance    float64 `yaml:"significance" default:"0.05" validate:"gt=0,lt=1"`
}

type ModelConfig struct {
	P int `yaml:"p" default:"2" validate:"gte=0"`
	D int `yaml:"d" validate:"gte=0"`
	Q int `yaml:"q" default:"1" validate:"gte=0"`
}

func (m ModelConfig) Order() forecast.Order {
	return forecast.Order{P: m.P, D: m.D, Q: m.Q}
}

type EngineConfig struct {
	RefitEvery int `yaml:"refit_every" default:"21" validate:"gte=1"`
}

type CostsConfig struct {
	UnitCost       float64 `yaml:"unit_cost" default:"0.0005" validate:"gte=0"`
	PeriodsPerYear int     `yaml:"periods_per_year" default:"252" validate:"gte=1"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
}

// Default returns a configuration with every field at its default value.
func Default() *Config {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		// The default tags are static; failing to apply them is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return c
}

// Load reads, defaults and validates a YAML config. Keys absent from the
// file keep their defaults; explicit zeros in the file stick.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads a config without validating it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	if err := c.Model.Order().Validate(); err != nil {
		return fmt.Errorf("model order invalid: %w", err)
	}
	return nil
}

// Overrides carries per-request parameter tweaks for API and sweep calls.
type Overrides struct {
	TrainFraction  float64
	Significance   float64
	RefitEvery     int
	UnitCost       float64
	PeriodsPerYear int
	Model          *ModelConfig
}

// Merge overlays non-zero fields from override onto base and returns the
// result. Model replaces the whole order when present, so an explicit zero
// term stays expressible there.
// Note: a zero unit cost is meaningful but cannot be requested through an
// override; set it in the config file instead.
func Merge(base Config, override Overrides) Config {
	out := base
	if override.TrainFraction != 0 {
		out.Series.TrainFraction = override.TrainFraction
	}
	if override.Significance != 0 {
		out.Series.Significance = override.Significance
	}
	if override.RefitEvery != 0 {
		out.Engine.RefitEvery = override.RefitEvery
	}
	if override.UnitCost != 0 {
		out.Costs.UnitCost = override.UnitCost
	}
	if override.PeriodsPerYear != 0 {
		out.Costs.PeriodsPerYear = override.PeriodsPerYear
	}
	if override.Model != nil {
		out.Model = *override.Model
	}
	return out
}
