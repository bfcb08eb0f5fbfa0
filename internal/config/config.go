package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"microgrid-sizer/internal/model"
	"microgrid-sizer/internal/search"
	"microgrid-sizer/internal/sizing"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load system parameters from a separate YAML (e.g. examples/systems/*.yaml).
	// If both SystemFile and System are provided, non-zero System fields override SystemFile.
	SystemFile  string             `yaml:"system_file"`
	System      model.SystemParams `yaml:"system"`
	Decision    model.Decision     `yaml:"decision"`
	Search      SearchConfig       `yaml:"search"`
	Constraints sizing.Constraints `yaml:"constraints"`
	Data        DataConfig         `yaml:"data"`
	Output      OutputConfig       `yaml:"output"`
}

type SearchConfig struct {
	Optimizer string         `yaml:"optimizer"`
	Bounds    sizing.Bounds  `yaml:"bounds"`
	Genetic   search.Genetic `yaml:"genetic"`
	Grid      search.Grid    `yaml:"grid"`
}

type DataConfig struct {
	SeriesFile string `yaml:"series_file"`
	// ExpectSteps fails the run when the series length differs (0 = any).
	ExpectSteps int `yaml:"expect_steps"`
}

type OutputConfig struct {
	LedgerCSV  string `yaml:"ledger_csv"`
	ReportJSON string `yaml:"report_json"`
}

const (
	OptimizerGenetic = "genetic"
	OptimizerGrid    = "grid"
)

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs. Search and constraint
// settings start from their defaults, so omitted keys keep them.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Config{
		Constraints: sizing.DefaultConstraints(),
		Search:      SearchConfig{Genetic: search.DefaultGenetic()},
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	// If system_file is set, load it and merge in any explicit overrides from c.System.
	if c.SystemFile != "" {
		loaded, err := LoadSystemFile(resolve(path, c.SystemFile))
		if err != nil {
			return nil, err
		}
		c.System = MergeSystem(loaded, c.System)
	}
	if c.Data.SeriesFile != "" {
		c.Data.SeriesFile = resolve(path, c.Data.SeriesFile)
	}
	return &c, nil
}

// resolve prefers interpreting relative paths as relative to the config
// file directory, but falls back to the provided path (relative to cwd)
// if that doesn't exist.
func resolve(configPath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	cand := filepath.Join(filepath.Dir(configPath), p)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return p
}

// ApplyDefaults fills settings that have a sensible implied value.
func (c *Config) ApplyDefaults() {
	if c.System.Dispatch.Priority == "" {
		c.System.Dispatch.Priority = model.PriorityStorageFirst
	}
	if c.Search.Optimizer == "" {
		c.Search.Optimizer = OptimizerGenetic
	}
	// If initial_soc is not provided, start from the top of the storage window.
	if c.Decision.InitialSOC == 0 {
		c.Decision.InitialSOC = c.System.Storage.MaxSOC
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.System.Validate(); err != nil {
		return fmt.Errorf("system config invalid: %w", err)
	}
	if err := c.Constraints.Validate(); err != nil {
		return err
	}
	switch c.Search.Optimizer {
	case OptimizerGenetic:
		if err := c.Search.Genetic.Validate(); err != nil {
			return err
		}
	case OptimizerGrid:
	default:
		return fmt.Errorf("search.optimizer %q must be %q or %q", c.Search.Optimizer, OptimizerGenetic, OptimizerGrid)
	}
	if c.Data.SeriesFile == "" {
		return errors.New("data.series_file is required")
	}
	if c.Data.ExpectSteps < 0 {
		return errors.New("data.expect_steps must be >= 0")
	}
	return nil
}

// Optimizer builds the configured search strategy.
func (c *Config) Optimizer() search.Optimizer {
	if c.Search.Optimizer == OptimizerGrid {
		return c.Search.Grid
	}
	return c.Search.Genetic
}

type systemFileWrapper struct {
	System model.SystemParams `yaml:"system"`
}

// LoadSystemFile reads a preset: a YAML document with a top-level
// "system" key.
func LoadSystemFile(path string) (model.SystemParams, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.SystemParams{}, err
	}
	var w systemFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return model.SystemParams{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return w.System, nil
}
