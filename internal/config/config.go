package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/deskwm/internal/desktop"
	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/storage"
)

// LoggingConfig configures the daemon log file.
type LoggingConfig struct {
	// File is the log file path (default: ~/.local/share/deskwm/deskwm.log)
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files,omitempty"`
	// MaxAgeDays removes rotated files older than this (0 keeps them)
	MaxAgeDays int  `yaml:"max_age_days,omitempty"`
	Compress   bool `yaml:"compress,omitempty"`
	// Stderr mirrors log output to stderr.
	Stderr bool `yaml:"stderr,omitempty"`
}

// StorageConfig selects where window state is persisted.
type StorageConfig struct {
	Backend storage.Backend `yaml:"backend"`
	// Path is a directory (file) or database file (sqlite). Empty uses the
	// state directory.
	Path string `yaml:"path,omitempty"`
	Key  string `yaml:"key"`
}

// PlacementConfig groups the default stagger and the ad-hoc window placer.
type PlacementConfig struct {
	geometry.StaggerParams   `yaml:",inline"`
	geometry.PlacementParams `yaml:",inline"`
	// Seed makes ad-hoc placement reproducible; 0 seeds from the clock.
	Seed int64 `yaml:"seed,omitempty"`
}

type Config struct {
	LogLevel string        `yaml:"log_level"`
	Logging  LoggingConfig `yaml:"logging,omitempty"`
	// Display is the X display queried for the viewport. Empty uses $DISPLAY.
	Display string `yaml:"display,omitempty"`
	// Viewport overrides display detection when non-zero.
	Viewport          geometry.Size         `yaml:"viewport"`
	Desktop           geometry.Chrome       `yaml:"desktop"`
	Placement         PlacementConfig       `yaml:"placement"`
	Sizing            geometry.SizingParams `yaml:"sizing"`
	MobileAspectRatio float64               `yaml:"mobile_aspect_ratio"`
	Storage           StorageConfig         `yaml:"storage"`
	Apps              []desktop.App         `yaml:"apps"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Desktop:  geometry.DefaultChrome(),
		Placement: PlacementConfig{
			StaggerParams:   geometry.DefaultStaggerParams(),
			PlacementParams: geometry.DefaultPlacementParams(),
		},
		Sizing:            geometry.DefaultSizingParams(),
		MobileAspectRatio: 1.6,
		Storage: StorageConfig{
			Backend: storage.BackendFile,
			Key:     "windows",
		},
		Apps: desktop.DefaultApps(),
	}
}

// GetLoggingConfig returns the logging configuration with defaults applied.
func (c *Config) GetLoggingConfig() LoggingConfig {
	if c == nil {
		return LoggingConfig{}
	}
	cfg := c.Logging
	if cfg.File == "" {
		cfg.File = filepath.Join(dataDir(), "deskwm.log")
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = 3
	}
	return cfg
}

// StoragePath returns the backend path with the state-directory default
// applied.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	switch c.Storage.Backend {
	case storage.BackendSQLite:
		return filepath.Join(dataDir(), "state.db")
	default:
		return filepath.Join(dataDir(), "state")
	}
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "deskwm")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.Getenv("HOME")
	}
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".local", "share", "deskwm")
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Save writes the configuration to path.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxFiles < 0 || c.Logging.MaxAgeDays < 0 {
		return &ValidationError{Path: "logging", Err: fmt.Errorf("logging limits must be >= 0")}
	}

	if c.Viewport.Width < 0 || c.Viewport.Height < 0 {
		return &ValidationError{Path: "viewport", Err: fmt.Errorf("viewport dimensions must be >= 0")}
	}
	if (c.Viewport.Width == 0) != (c.Viewport.Height == 0) {
		return &ValidationError{Path: "viewport", Err: fmt.Errorf("viewport needs both width and height, or neither")}
	}

	if c.Desktop.TopBarHeight < 0 || c.Desktop.DockHeight < 0 {
		return &ValidationError{Path: "desktop", Err: fmt.Errorf("top_bar_height and dock_height must be >= 0")}
	}
	if c.Desktop.EdgeMargin <= 0 {
		return &ValidationError{Path: "desktop.edge_margin", Err: fmt.Errorf("edge_margin must be > 0")}
	}

	p := c.Placement
	if p.Offset < 0 {
		return &ValidationError{Path: "placement.stagger_offset", Err: fmt.Errorf("stagger_offset must be >= 0")}
	}
	if p.Cycle < 1 {
		return &ValidationError{Path: "placement.stagger_cycle", Err: fmt.Errorf("stagger_cycle must be >= 1")}
	}
	if p.OverlapThreshold <= 0 || p.OverlapThreshold > 1 {
		return &ValidationError{Path: "placement.overlap_threshold", Err: fmt.Errorf("overlap_threshold must be in (0, 1]")}
	}
	if p.MaxAttempts < 0 {
		return &ValidationError{Path: "placement.max_attempts", Err: fmt.Errorf("max_attempts must be >= 0")}
	}
	if p.SpiralBase <= 0 {
		return &ValidationError{Path: "placement.spiral_base", Err: fmt.Errorf("spiral_base must be > 0")}
	}
	if p.Jitter < 0 || p.EdgeGuard < 0 {
		return &ValidationError{Path: "placement", Err: fmt.Errorf("jitter and edge_guard must be >= 0")}
	}

	s := c.Sizing
	if s.Reference.IsZero() {
		return &ValidationError{Path: "sizing.reference", Err: fmt.Errorf("reference width and height must be > 0")}
	}
	if s.ReservedHeight < 0 {
		return &ValidationError{Path: "sizing.reserved_height", Err: fmt.Errorf("reserved_height must be >= 0")}
	}
	if s.MaxFraction <= 0 || s.MaxFraction > 1 {
		return &ValidationError{Path: "sizing.max_fraction", Err: fmt.Errorf("max_fraction must be in (0, 1]")}
	}
	if s.Minimum.Width < 0 || s.Minimum.Height < 0 {
		return &ValidationError{Path: "sizing.minimum", Err: fmt.Errorf("minimum must be >= 0")}
	}

	if c.MobileAspectRatio <= 0 {
		return &ValidationError{Path: "mobile_aspect_ratio", Err: fmt.Errorf("mobile_aspect_ratio must be > 0")}
	}

	switch c.Storage.Backend {
	case storage.BackendFile, storage.BackendSQLite, storage.BackendMemory:
	default:
		return &ValidationError{Path: "storage.backend", Err: fmt.Errorf("backend must be one of: file, sqlite, memory")}
	}
	if strings.TrimSpace(c.Storage.Key) == "" || strings.ContainsAny(c.Storage.Key, `/\`) {
		return &ValidationError{Path: "storage.key", Err: fmt.Errorf("key must be a non-empty name without path separators")}
	}

	if _, err := desktop.NewRegistry(c.Apps); err != nil {
		return &ValidationError{Path: "apps", Err: err}
	}

	if warnings := c.validationWarnings(); len(warnings) > 0 {
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
	}
	return nil
}

func (c *Config) validationWarnings() []string {
	if c == nil {
		return nil
	}

	var warnings []string

	docked := 0
	for _, app := range c.Apps {
		if app.ShowInDock {
			docked++
		}
	}
	if len(c.Apps) > 0 && docked == 0 {
		warnings = append(warnings, "no app has show_in_dock: true; the dock will be empty")
	}
	if c.Placement.MaxAttempts > 64 {
		warnings = append(warnings, fmt.Sprintf("placement.max_attempts=%d is unusually high", c.Placement.MaxAttempts))
	}
	return warnings
}

// Registry builds the application registry.
func (c *Config) Registry() (*desktop.Registry, error) {
	return desktop.NewRegistry(c.Apps)
}
