package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all settings of the georeferencing batch.
type Config struct {
	Paths   PathsConfig   `mapstructure:"paths"`
	Scan    ScanConfig    `mapstructure:"scan"`
	Match   MatchConfig   `mapstructure:"match"`
	Workers WorkersConfig `mapstructure:"workers"`
	Log     LogConfig     `mapstructure:"log"`
}

// ScanConfig describes the incoming raster pages.
type ScanConfig struct {
	// DPI is the resolution at which the scans were rendered.
	DPI float64 `mapstructure:"dpi"`
}

// PathsConfig names the input and output directories of the batch.
type PathsConfig struct {
	// Rendered holds the scanned pages, one TIFF per page under a
	// directory per mutation.
	Rendered string `mapstructure:"rendered"`

	// Text holds OCRed plaintext sidecars, one per mutation. Pages
	// without a sidecar are OCRed on the fly.
	Text string `mapstructure:"text"`

	// Survey holds the survey data CSV files.
	Survey string `mapstructure:"survey"`

	// Workdir receives all output artifacts.
	Workdir string `mapstructure:"workdir"`
}

// MatchConfig tunes the geometric correspondence search. Distances are
// ground meters.
type MatchConfig struct {
	Tolerance      float64 `mapstructure:"tolerance"`
	AcceptResidual float64 `mapstructure:"accept_residual"`
	Penalty        float64 `mapstructure:"penalty"`
	Scales         []int   `mapstructure:"scales"`

	// SearchFactor widens the search region around the estimated plan
	// location by this factor of the page footprint. Raise it when the
	// location estimates are known to sit near page edges; every doubling
	// quadruples the candidate area.
	SearchFactor float64 `mapstructure:"search_factor"`
}

type WorkersConfig struct {
	Count int `mapstructure:"count"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("paths.rendered", "rendered")
	v.SetDefault("paths.text", "text")
	v.SetDefault("paths.survey", "survey_data")
	v.SetDefault("paths.workdir", "georeferenced")
	v.SetDefault("scan.dpi", 300)
	v.SetDefault("match.tolerance", 1.0)
	v.SetDefault("match.accept_residual", 0.4)
	v.SetDefault("match.penalty", 10.0)
	v.SetDefault("match.scales", []int{500, 200, 1000, 250, 100, 2000})
	v.SetDefault("match.search_factor", 1.0)
	v.SetDefault("workers.count", runtime.NumCPU())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: CADAREF_MATCH_TOLERANCE → match.tolerance
	v.SetEnvPrefix("CADAREF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Paths.Rendered == "" {
		errs = append(errs, "paths.rendered is required")
	}
	if c.Paths.Survey == "" {
		errs = append(errs, "paths.survey is required")
	}
	if c.Paths.Workdir == "" {
		errs = append(errs, "paths.workdir is required")
	}
	if c.Scan.DPI <= 0 {
		errs = append(errs, "scan.dpi must be positive")
	}
	if c.Match.Tolerance <= 0 {
		errs = append(errs, "match.tolerance must be positive")
	}
	if c.Match.AcceptResidual <= 0 {
		errs = append(errs, "match.accept_residual must be positive")
	}
	if c.Match.Penalty < c.Match.Tolerance {
		errs = append(errs, "match.penalty must be at least match.tolerance")
	}
	if c.Match.SearchFactor <= 0 {
		errs = append(errs, "match.search_factor must be positive")
	}
	if len(c.Match.Scales) == 0 {
		errs = append(errs, "match.scales must name at least one map scale")
	}
	for _, s := range c.Match.Scales {
		if s <= 0 {
			errs = append(errs, fmt.Sprintf("match.scales must be positive, got %d", s))
		}
	}
	if c.Workers.Count <= 0 {
		errs = append(errs, "workers.count must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
