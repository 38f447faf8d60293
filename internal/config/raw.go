package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/deskwm/internal/desktop"
	"github.com/1broseidon/deskwm/internal/storage"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawSize struct {
	Width  *int `yaml:"width"`
	Height *int `yaml:"height"`
}

type RawLoggingConfig struct {
	File       *string `yaml:"file"`
	MaxSizeMB  *int    `yaml:"max_size_mb"`
	MaxFiles   *int    `yaml:"max_files"`
	MaxAgeDays *int    `yaml:"max_age_days"`
	Compress   *bool   `yaml:"compress"`
	Stderr     *bool   `yaml:"stderr"`
}

type RawDesktop struct {
	TopBarHeight *int `yaml:"top_bar_height"`
	DockHeight   *int `yaml:"dock_height"`
	EdgeMargin   *int `yaml:"edge_margin"`
}

type RawPlacement struct {
	StaggerOffset    *int     `yaml:"stagger_offset"`
	StaggerCycle     *int     `yaml:"stagger_cycle"`
	OverlapThreshold *float64 `yaml:"overlap_threshold"`
	MaxAttempts      *int     `yaml:"max_attempts"`
	SpiralBase       *float64 `yaml:"spiral_base"`
	Jitter           *int     `yaml:"jitter"`
	EdgeGuard        *int     `yaml:"edge_guard"`
	Seed             *int64   `yaml:"seed"`
}

type RawSizing struct {
	Reference      *RawSize `yaml:"reference"`
	ReservedHeight *int     `yaml:"reserved_height"`
	MaxFraction    *float64 `yaml:"max_fraction"`
	Minimum        *RawSize `yaml:"minimum"`
}

type RawStorage struct {
	Backend *storage.Backend `yaml:"backend"`
	Path    *string          `yaml:"path"`
	Key     *string          `yaml:"key"`
}

// RawConfig is one config file as written: every field optional so that
// includes and the main file can be layered over the defaults.
type RawConfig struct {
	Include           IncludeList       `yaml:"include"`
	LogLevel          *string           `yaml:"log_level"`
	Logging           *RawLoggingConfig `yaml:"logging"`
	Display           *string           `yaml:"display"`
	Viewport          *RawSize          `yaml:"viewport"`
	Desktop           *RawDesktop       `yaml:"desktop"`
	Placement         *RawPlacement     `yaml:"placement"`
	Sizing            *RawSizing        `yaml:"sizing"`
	MobileAspectRatio *float64          `yaml:"mobile_aspect_ratio"`
	Storage           *RawStorage       `yaml:"storage"`
	// Apps replaces the whole list; entries are not merged by id.
	Apps *[]desktop.App `yaml:"apps"`
}

// merge layers overlay over c; set fields in overlay win.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	out.Include = nil

	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.Logging != nil {
		out.Logging = mergeRawLogging(out.Logging, overlay.Logging)
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.Viewport != nil {
		out.Viewport = mergeRawSize(out.Viewport, overlay.Viewport)
	}
	if overlay.Desktop != nil {
		out.Desktop = mergeRawDesktop(out.Desktop, overlay.Desktop)
	}
	if overlay.Placement != nil {
		out.Placement = mergeRawPlacement(out.Placement, overlay.Placement)
	}
	if overlay.Sizing != nil {
		out.Sizing = mergeRawSizing(out.Sizing, overlay.Sizing)
	}
	if overlay.MobileAspectRatio != nil {
		out.MobileAspectRatio = overlay.MobileAspectRatio
	}
	if overlay.Storage != nil {
		out.Storage = mergeRawStorage(out.Storage, overlay.Storage)
	}
	if overlay.Apps != nil {
		out.Apps = overlay.Apps
	}
	return out
}

func mergeRawSize(base, overlay *RawSize) *RawSize {
	out := RawSize{}
	if base != nil {
		out = *base
	}
	if overlay.Width != nil {
		out.Width = overlay.Width
	}
	if overlay.Height != nil {
		out.Height = overlay.Height
	}
	return &out
}

func mergeRawLogging(base, overlay *RawLoggingConfig) *RawLoggingConfig {
	out := RawLoggingConfig{}
	if base != nil {
		out = *base
	}
	if overlay.File != nil {
		out.File = overlay.File
	}
	if overlay.MaxSizeMB != nil {
		out.MaxSizeMB = overlay.MaxSizeMB
	}
	if overlay.MaxFiles != nil {
		out.MaxFiles = overlay.MaxFiles
	}
	if overlay.MaxAgeDays != nil {
		out.MaxAgeDays = overlay.MaxAgeDays
	}
	if overlay.Compress != nil {
		out.Compress = overlay.Compress
	}
	if overlay.Stderr != nil {
		out.Stderr = overlay.Stderr
	}
	return &out
}

func mergeRawDesktop(base, overlay *RawDesktop) *RawDesktop {
	out := RawDesktop{}
	if base != nil {
		out = *base
	}
	if overlay.TopBarHeight != nil {
		out.TopBarHeight = overlay.TopBarHeight
	}
	if overlay.DockHeight != nil {
		out.DockHeight = overlay.DockHeight
	}
	if overlay.EdgeMargin != nil {
		out.EdgeMargin = overlay.EdgeMargin
	}
	return &out
}

func mergeRawPlacement(base, overlay *RawPlacement) *RawPlacement {
	out := RawPlacement{}
	if base != nil {
		out = *base
	}
	if overlay.StaggerOffset != nil {
		out.StaggerOffset = overlay.StaggerOffset
	}
	if overlay.StaggerCycle != nil {
		out.StaggerCycle = overlay.StaggerCycle
	}
	if overlay.OverlapThreshold != nil {
		out.OverlapThreshold = overlay.OverlapThreshold
	}
	if overlay.MaxAttempts != nil {
		out.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.SpiralBase != nil {
		out.SpiralBase = overlay.SpiralBase
	}
	if overlay.Jitter != nil {
		out.Jitter = overlay.Jitter
	}
	if overlay.EdgeGuard != nil {
		out.EdgeGuard = overlay.EdgeGuard
	}
	if overlay.Seed != nil {
		out.Seed = overlay.Seed
	}
	return &out
}

func mergeRawSizing(base, overlay *RawSizing) *RawSizing {
	out := RawSizing{}
	if base != nil {
		out = *base
	}
	if overlay.Reference != nil {
		out.Reference = mergeRawSize(out.Reference, overlay.Reference)
	}
	if overlay.ReservedHeight != nil {
		out.ReservedHeight = overlay.ReservedHeight
	}
	if overlay.MaxFraction != nil {
		out.MaxFraction = overlay.MaxFraction
	}
	if overlay.Minimum != nil {
		out.Minimum = mergeRawSize(out.Minimum, overlay.Minimum)
	}
	return &out
}

func mergeRawStorage(base, overlay *RawStorage) *RawStorage {
	out := RawStorage{}
	if base != nil {
		out = *base
	}
	if overlay.Backend != nil {
		out.Backend = overlay.Backend
	}
	if overlay.Path != nil {
		out.Path = overlay.Path
	}
	if overlay.Key != nil {
		out.Key = overlay.Key
	}
	return &out
}
