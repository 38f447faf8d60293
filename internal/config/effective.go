package config

import (
	"fmt"

	"github.com/1broseidon/deskwm/internal/desktop"
	"github.com/1broseidon/deskwm/internal/geometry"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig layers raw over DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if l := raw.Logging; l != nil {
		setString(&cfg.Logging.File, l.File)
		setInt(&cfg.Logging.MaxSizeMB, l.MaxSizeMB)
		setInt(&cfg.Logging.MaxFiles, l.MaxFiles)
		setInt(&cfg.Logging.MaxAgeDays, l.MaxAgeDays)
		setBool(&cfg.Logging.Compress, l.Compress)
		setBool(&cfg.Logging.Stderr, l.Stderr)
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.Viewport != nil {
		applySize(&cfg.Viewport, raw.Viewport)
	}
	if d := raw.Desktop; d != nil {
		setInt(&cfg.Desktop.TopBarHeight, d.TopBarHeight)
		setInt(&cfg.Desktop.DockHeight, d.DockHeight)
		setInt(&cfg.Desktop.EdgeMargin, d.EdgeMargin)
	}
	if p := raw.Placement; p != nil {
		setInt(&cfg.Placement.Offset, p.StaggerOffset)
		setInt(&cfg.Placement.Cycle, p.StaggerCycle)
		setFloat(&cfg.Placement.OverlapThreshold, p.OverlapThreshold)
		setInt(&cfg.Placement.MaxAttempts, p.MaxAttempts)
		setFloat(&cfg.Placement.SpiralBase, p.SpiralBase)
		setInt(&cfg.Placement.Jitter, p.Jitter)
		setInt(&cfg.Placement.EdgeGuard, p.EdgeGuard)
		if p.Seed != nil {
			cfg.Placement.Seed = *p.Seed
		}
	}
	if s := raw.Sizing; s != nil {
		if s.Reference != nil {
			applySize(&cfg.Sizing.Reference, s.Reference)
		}
		setInt(&cfg.Sizing.ReservedHeight, s.ReservedHeight)
		setFloat(&cfg.Sizing.MaxFraction, s.MaxFraction)
		if s.Minimum != nil {
			applySize(&cfg.Sizing.Minimum, s.Minimum)
		}
	}
	if raw.MobileAspectRatio != nil {
		cfg.MobileAspectRatio = *raw.MobileAspectRatio
	}
	if s := raw.Storage; s != nil {
		if s.Backend != nil {
			cfg.Storage.Backend = *s.Backend
		}
		setString(&cfg.Storage.Path, s.Path)
		setString(&cfg.Storage.Key, s.Key)
	}
	if raw.Apps != nil {
		cfg.Apps = append([]desktop.App(nil), (*raw.Apps)...)
	}

	for i, app := range cfg.Apps {
		if err := desktop.ValidateApp(app); err != nil {
			return nil, &ValidationError{Path: fmt.Sprintf("apps[%d]", i), Err: err}
		}
	}
	return cfg, nil
}

func applySize(dst *geometry.Size, raw *RawSize) {
	setInt(&dst.Width, raw.Width)
	setInt(&dst.Height, raw.Height)
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
