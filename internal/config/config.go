// Package config loads and validates the n5toc runtime configuration.
package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"n5toc/internal/logger"
	"n5toc/internal/neuroglancer"
	"n5toc/internal/toc"
	"n5toc/internal/walker"
)

// ErrInvalidPattern is returned by Validate when an exclusion expression does not compile.
var ErrInvalidPattern = errors.New("invalid exclude pattern")

// Config captures runtime configuration for the n5toc application.
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `yaml:"listen_addr"`

	// RootDir is the directory searched for N5 volumes.
	RootDir string `yaml:"root_dir"`

	// ExcludeDirs are directory-name regular expressions pruned from every scan,
	// in addition to the N5 block directories.
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// N5Server is the file server that exposes RootDir over HTTP.
	N5Server string `yaml:"n5_server"`

	// ViewerHost is the neuroglancer instance links open in.
	ViewerHost string `yaml:"viewer_host"`

	// VoxelSize is the x, y, z scale written into viewer states.
	VoxelSize []float64 `yaml:"voxel_size"`

	// VoxelUnit is the unit of VoxelSize.
	VoxelUnit string `yaml:"voxel_unit"`

	// ScanTimeout bounds how long a request waits for a scan (0 = no limit).
	ScanTimeout time.Duration `yaml:"scan_timeout"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// Notes is Markdown shown above the table of contents.
	Notes string `yaml:"notes"`
}

// DefaultConfig returns a Config with the production defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:  ":9998",
		RootDir:     "/nrs/flyem/render/n5",
		ExcludeDirs: nil,
		N5Server:    "http://emdata4.int.janelia.org:9999",
		ViewerHost:  "http://neuroglancer-demo.appspot.com",
		VoxelSize:   []float64{8e-9, 8e-9, 8e-9},
		VoxelUnit:   "m",
		ScanTimeout: 2 * time.Minute,
		LogLevel:    "info",
	}
}

// LoadConfig loads configuration from the specified file path.
// If path is empty or the file doesn't exist, the defaults are returned.
// If the file exists but is malformed, an error is returned.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// scan_timeout is read as text so "90s" style values parse.
	type yamlConfig struct {
		ListenAddr  string    `yaml:"listen_addr"`
		RootDir     string    `yaml:"root_dir"`
		ExcludeDirs []string  `yaml:"exclude_dirs"`
		N5Server    string    `yaml:"n5_server"`
		ViewerHost  string    `yaml:"viewer_host"`
		VoxelSize   []float64 `yaml:"voxel_size"`
		VoxelUnit   string    `yaml:"voxel_unit"`
		ScanTimeout *string   `yaml:"scan_timeout"`
		LogLevel    string    `yaml:"log_level"`
		Notes       string    `yaml:"notes"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.ListenAddr != "" {
		cfg.ListenAddr = yamlCfg.ListenAddr
	}
	if yamlCfg.RootDir != "" {
		cfg.RootDir = yamlCfg.RootDir
	}
	if yamlCfg.ExcludeDirs != nil {
		cfg.ExcludeDirs = yamlCfg.ExcludeDirs
	}
	if yamlCfg.N5Server != "" {
		cfg.N5Server = yamlCfg.N5Server
	}
	if yamlCfg.ViewerHost != "" {
		cfg.ViewerHost = yamlCfg.ViewerHost
	}
	if yamlCfg.VoxelSize != nil {
		cfg.VoxelSize = yamlCfg.VoxelSize
	}
	if yamlCfg.VoxelUnit != "" {
		cfg.VoxelUnit = yamlCfg.VoxelUnit
	}
	if yamlCfg.ScanTimeout != nil {
		timeout, err := time.ParseDuration(*yamlCfg.ScanTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid scan_timeout %q: %w", *yamlCfg.ScanTimeout, err)
		}
		cfg.ScanTimeout = timeout
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.Notes != "" {
		cfg.Notes = yamlCfg.Notes
	}

	return cfg, nil
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values override configuration values.
func (c *Config) MergeWithFlags(listenAddr, rootDir *string, excludeDirs *[]string, scanTimeout *time.Duration, logLevel *string) {
	if listenAddr != nil {
		c.ListenAddr = *listenAddr
	}
	if rootDir != nil {
		c.RootDir = *rootDir
	}
	if excludeDirs != nil {
		c.ExcludeDirs = append(append([]string(nil), c.ExcludeDirs...), *excludeDirs...)
	}
	if scanTimeout != nil {
		c.ScanTimeout = *scanTimeout
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
}

// Validate normalizes RootDir and checks every value. Exclusion expressions
// are compiled here so a bad one is reported once, at startup.
func (c *Config) Validate() error {
	root, err := normalizeRoot(c.RootDir)
	if err != nil {
		return err
	}
	c.RootDir = root

	for _, expr := range c.ExcludeDirs {
		if _, err := walker.Compile(nil, []string{expr}); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPattern, err)
		}
	}

	if err := validateURL("n5_server", c.N5Server); err != nil {
		return err
	}
	if err := validateURL("viewer_host", c.ViewerHost); err != nil {
		return err
	}

	if len(c.VoxelSize) != 3 {
		return fmt.Errorf("voxel_size must have 3 values, got %d", len(c.VoxelSize))
	}
	for i, v := range c.VoxelSize {
		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("voxel_size[%d] must be a finite value > 0, got %g", i, v)
		}
	}
	if strings.TrimSpace(c.VoxelUnit) == "" {
		return errors.New("voxel_unit cannot be empty")
	}

	if c.ScanTimeout < 0 {
		return fmt.Errorf("scan_timeout must be >= 0, got %v", c.ScanTimeout)
	}

	if !logger.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	return nil
}

// ScanSettings returns the immutable scan input derived from c.
func (c *Config) ScanSettings() toc.Settings {
	var scale [3]float64
	copy(scale[:], c.VoxelSize)
	return toc.Settings{
		Root:        c.RootDir,
		ExcludeDirs: append([]string(nil), c.ExcludeDirs...),
		N5Server:    c.N5Server,
		ViewerHost:  c.ViewerHost,
		Dimensions:  neuroglancer.XYZ(scale, c.VoxelUnit),
	}
}

func normalizeRoot(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("root_dir cannot be empty")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve root_dir %q: %w", trimmed, err)
	}
	return filepath.Clean(abs), nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %s %q: want an absolute URL", field, raw)
	}
	return nil
}
