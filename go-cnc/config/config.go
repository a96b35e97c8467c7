// Package config loads the YAML-backed configuration the CLI and any
// longer-running host process read their tunables from, following the
// teacher's react.go pattern of os.ReadFile plus yaml.Unmarshal, but
// generalized to every key spec.md §6 enumerates.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/nludban/go-cnc/go-cnc/fileinfo"
	"github.com/nludban/go-cnc/go-cnc/model"
)

// Config is the on-disk shape of go-cnc's tunables.
type Config struct {
	BaseDirectory      string        `yaml:"base-directory"`
	HostUpdateInterval time.Duration `yaml:"host-update-interval"`

	FileInfoReadBufferSize  int     `yaml:"file-info-read-buffer-size"`
	FileInfoReadLimitHeader int64   `yaml:"file-info-read-limit-header"`
	FileInfoReadLimitFooter int64   `yaml:"file-info-read-limit-footer"`
	MaxLayerHeight          float64 `yaml:"max-layer-height"`

	LayerHeightFilters   []string `yaml:"layer-height-filters"`
	FilamentFilters      []string `yaml:"filament-filters"`
	GeneratedByFilters   []string `yaml:"generated-by-filters"`
	PrintTimeFilters     []string `yaml:"print-time-filters"`
	SimulatedTimeFilters []string `yaml:"simulated-time-filters"`

	Categories DirectoryCategories `yaml:"directories"`
}

// DirectoryCategories holds the optional model-store seed overrides for
// each of the five well-known directory roles. A blank field leaves the
// pathresolver's built-in default in effect.
type DirectoryCategories struct {
	Filaments string `yaml:"filaments"`
	GCodes    string `yaml:"gcodes"`
	Macros    string `yaml:"macros"`
	System    string `yaml:"system"`
	WWW       string `yaml:"www"`
}

const (
	defaultHostUpdateInterval = 500 * time.Millisecond
	defaultReadBufferSize     = 4096
	defaultReadLimitHeader    = 8192
	defaultReadLimitFooter    = 8192
	defaultMaxLayerHeight     = 0.4
)

// Default returns the built-in configuration used when no file is
// supplied, or to fill in any zero-valued field after loading one.
func Default() *Config {
	return &Config{
		BaseDirectory:           "/opt/rr/sd",
		HostUpdateInterval:      defaultHostUpdateInterval,
		FileInfoReadBufferSize:  defaultReadBufferSize,
		FileInfoReadLimitHeader: defaultReadLimitHeader,
		FileInfoReadLimitFooter: defaultReadLimitFooter,
		MaxLayerHeight:          defaultMaxLayerHeight,
	}
}

// Load reads and parses a YAML configuration file at path, applying
// Default()'s values for anything the file leaves zero.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.BaseDirectory == "" {
		c.BaseDirectory = def.BaseDirectory
	}
	if c.HostUpdateInterval == 0 {
		c.HostUpdateInterval = def.HostUpdateInterval
	}
	if c.FileInfoReadBufferSize == 0 {
		c.FileInfoReadBufferSize = def.FileInfoReadBufferSize
	}
	if c.FileInfoReadLimitHeader == 0 {
		c.FileInfoReadLimitHeader = def.FileInfoReadLimitHeader
	}
	if c.FileInfoReadLimitFooter == 0 {
		c.FileInfoReadLimitFooter = def.FileInfoReadLimitFooter
	}
	if c.MaxLayerHeight == 0 {
		c.MaxLayerHeight = def.MaxLayerHeight
	}
}

// ScanLimits projects the file-info-relevant fields into a
// fileinfo.ScanLimits value.
func (c *Config) ScanLimits() fileinfo.ScanLimits {
	return fileinfo.ScanLimits{
		HeadLimit:      c.FileInfoReadLimitHeader,
		FootLimit:      c.FileInfoReadLimitFooter,
		BufferSize:     c.FileInfoReadBufferSize,
		MaxLayerHeight: c.MaxLayerHeight,
	}
}

// Filters compiles the configured regex filter lists into a
// fileinfo.Filters value, falling back to fileinfo's built-in defaults for
// any list left empty.
func (c *Config) Filters() (fileinfo.Filters, error) {
	defaults := fileinfo.DefaultFilters()
	filters := fileinfo.Filters{
		LayerHeight:   defaults.LayerHeight,
		Filament:      defaults.Filament,
		GeneratedBy:   defaults.GeneratedBy,
		PrintTime:     defaults.PrintTime,
		SimulatedTime: defaults.SimulatedTime,
	}

	if len(c.LayerHeightFilters) > 0 {
		fs, err := compileLayerHeightFilters(c.LayerHeightFilters)
		if err != nil {
			return fileinfo.Filters{}, err
		}
		filters.LayerHeight = fs
	}
	if len(c.FilamentFilters) > 0 {
		fs, err := compileFilamentFilters(c.FilamentFilters)
		if err != nil {
			return fileinfo.Filters{}, err
		}
		filters.Filament = fs
	}
	if len(c.GeneratedByFilters) > 0 {
		fs, err := compileGeneratedByFilters(c.GeneratedByFilters)
		if err != nil {
			return fileinfo.Filters{}, err
		}
		filters.GeneratedBy = fs
	}
	if len(c.PrintTimeFilters) > 0 {
		fs, err := compileTimeFilters(c.PrintTimeFilters)
		if err != nil {
			return fileinfo.Filters{}, err
		}
		filters.PrintTime = fs
	}
	if len(c.SimulatedTimeFilters) > 0 {
		fs, err := compileTimeFilters(c.SimulatedTimeFilters)
		if err != nil {
			return fileinfo.Filters{}, err
		}
		filters.SimulatedTime = fs
	}
	return filters, nil
}

// NewStore builds a model.Store seeded from this configuration's base
// directory and any directory-category overrides it carries. Drives other
// than 0 are not configured here; a host process adds them at runtime as
// storage media come online.
func (c *Config) NewStore() *model.Store {
	store := model.NewStore(c.BaseDirectory)
	store.WriteScope(func(v model.WriteView) {
		v.SetCategory(model.Filaments, c.Categories.Filaments)
		v.SetCategory(model.GCodes, c.Categories.GCodes)
		v.SetCategory(model.Macros, c.Categories.Macros)
		v.SetCategory(model.System, c.Categories.System)
		v.SetCategory(model.WWW, c.Categories.WWW)
	})
	return store
}

func compileLayerHeightFilters(patterns []string) ([]fileinfo.LayerHeightFilter, error) {
	out := make([]fileinfo.LayerHeightFilter, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("config: compiling layer-height filter %q: %w", p, err)
		}
		out = append(out, fileinfo.LayerHeightFilter{Pattern: re})
	}
	return out, nil
}

func compileFilamentFilters(patterns []string) ([]fileinfo.FilamentFilter, error) {
	out := make([]fileinfo.FilamentFilter, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("config: compiling filament filter %q: %w", p, err)
		}
		out = append(out, fileinfo.FilamentFilter{Pattern: re})
	}
	return out, nil
}

func compileGeneratedByFilters(patterns []string) ([]fileinfo.GeneratedByFilter, error) {
	out := make([]fileinfo.GeneratedByFilter, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("config: compiling generated-by filter %q: %w", p, err)
		}
		out = append(out, fileinfo.GeneratedByFilter{Pattern: re})
	}
	return out, nil
}

func compileTimeFilters(patterns []string) ([]fileinfo.TimeFilter, error) {
	out := make([]fileinfo.TimeFilter, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("config: compiling time filter %q: %w", p, err)
		}
		out = append(out, fileinfo.TimeFilter{Pattern: re})
	}
	return out, nil
}
