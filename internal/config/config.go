// Package config loads sitehue settings from YAML, a sibling .env file and
// SITEHUE_* environment variables, in that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/sitehue/internal/background"
	"github.com/jmylchreest/sitehue/internal/colour"
	"github.com/jmylchreest/sitehue/internal/raster"
)

// Environment variables that override file values.
const (
	EnvMergeThreshold = "SITEHUE_MERGE_THRESHOLD"
	EnvAncestorDepth  = "SITEHUE_ANCESTOR_DEPTH"
	EnvSampleGrid     = "SITEHUE_SAMPLE_GRID"
	EnvBrowserURL     = "SITEHUE_BROWSER_URL"
)

// AnalysisConfig tunes the colour engine.
type AnalysisConfig struct {
	MergeThreshold float64 `yaml:"merge_threshold"`
	AncestorDepth  int     `yaml:"ancestor_depth"`
	SampleGrid     int     `yaml:"sample_grid"`
	// Importance overrides tag ranks used for canonical tie-breaks.
	Importance map[string]int `yaml:"importance,omitempty"`
	// Chains overrides detection chains per platform tag.
	Chains map[string]background.Chains `yaml:"chains,omitempty"`
}

// BrowserConfig controls page loading.
type BrowserConfig struct {
	// RemoteURL connects to a running browser instead of launching one.
	RemoteURL         string        `yaml:"remote_url"`
	Headless          bool          `yaml:"headless"`
	Stealth           bool          `yaml:"stealth"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	// Selector picks the elements sampled on each page.
	Selector    string `yaml:"selector"`
	MaxElements int    `yaml:"max_elements"`
	Raster      bool   `yaml:"raster"`
}

// OutputConfig controls the report.
type OutputConfig struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// Config is the full configuration.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Browser  BrowserConfig  `yaml:"browser"`
	Output   OutputConfig   `yaml:"output"`
}

// DefaultSelector matches the text-bearing elements an audit samples.
const DefaultSelector = "h1, h2, h3, h4, h5, h6, p, a, button, li, label, span, blockquote"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			MergeThreshold: colour.DefaultMergeThreshold,
			AncestorDepth:  background.DefaultAncestorDepth,
			SampleGrid:     raster.DefaultGrid,
		},
		Browser: BrowserConfig{
			Headless:          true,
			Stealth:           true,
			NavigationTimeout: 30 * time.Second,
			Selector:          DefaultSelector,
			MaxElements:       400,
		},
		Output: OutputConfig{
			Format: "table",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies the
// environment. A .env file next to the config (or in the working directory
// when path is empty) is loaded first when present. An empty path skips the
// YAML file.
func Load(path string) (*Config, error) {
	envPath := ".env"
	if path != "" {
		envPath = filepath.Join(filepath.Dir(path), ".env")
	}
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvMergeThreshold); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMergeThreshold, err)
		}
		c.Analysis.MergeThreshold = f
	}
	if v := os.Getenv(EnvAncestorDepth); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAncestorDepth, err)
		}
		c.Analysis.AncestorDepth = n
	}
	if v := os.Getenv(EnvSampleGrid); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSampleGrid, err)
		}
		c.Analysis.SampleGrid = n
	}
	if v := os.Getenv(EnvBrowserURL); v != "" {
		c.Browser.RemoteURL = v
	}
	return nil
}

// Validate checks ranges and names.
func (c *Config) Validate() error {
	a := c.Analysis
	if a.MergeThreshold <= 0 || a.MergeThreshold > 100 {
		return fmt.Errorf("merge_threshold must be in (0, 100], got %v", a.MergeThreshold)
	}
	if a.AncestorDepth < 1 || a.AncestorDepth > 100 {
		return fmt.Errorf("ancestor_depth must be between 1 and 100, got %d", a.AncestorDepth)
	}
	if a.SampleGrid < 1 || a.SampleGrid > 25 {
		return fmt.Errorf("sample_grid must be between 1 and 25, got %d", a.SampleGrid)
	}
	for tag, score := range a.Importance {
		if score < 0 {
			return fmt.Errorf("importance for %q must not be negative", tag)
		}
	}
	if _, err := c.ChainOverrides(); err != nil {
		return err
	}

	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation_timeout must be positive")
	}
	if c.Browser.MaxElements < 0 {
		return fmt.Errorf("max_elements must not be negative")
	}
	if c.Browser.Selector == "" {
		return fmt.Errorf("selector is required")
	}

	switch c.Output.Format {
	case "table", "json":
	default:
		return fmt.Errorf("unsupported output format: %s (use table or json)", c.Output.Format)
	}
	return nil
}

// ChainOverrides converts configured chains into resolver chains, checking
// platform and method names.
func (c *Config) ChainOverrides() (map[background.Platform]background.Chains, error) {
	if len(c.Analysis.Chains) == 0 {
		return nil, nil
	}
	out := make(map[background.Platform]background.Chains, len(c.Analysis.Chains))
	for name, chains := range c.Analysis.Chains {
		p, err := background.ParsePlatform(name)
		if err != nil {
			return nil, fmt.Errorf("chains: %w", err)
		}
		if len(chains.Text) == 0 || len(chains.Other) == 0 {
			return nil, fmt.Errorf("chains.%s: text and other chains are both required", name)
		}
		for _, chain := range []background.Chain{chains.Text, chains.Other} {
			for i, step := range chain {
				m, err := background.ParseMethod(string(step.Method))
				if err != nil {
					return nil, fmt.Errorf("chains.%s[%d]: %w", name, i, err)
				}
				chain[i].Method = m
			}
		}
		out[p] = chains
	}
	return out, nil
}
