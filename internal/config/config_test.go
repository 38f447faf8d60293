package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/storage"
)

func writeConfig(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Placement.OverlapThreshold != 0.6 || cfg.Placement.MaxAttempts != 12 {
		t.Fatalf("unexpected placement defaults %+v", cfg.Placement)
	}
	if cfg.Storage.Key != "windows" {
		t.Fatalf("expected storage key windows, got %q", cfg.Storage.Key)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files loaded, got %v", res.Files)
	}
	if res.Config.MobileAspectRatio != 1.6 {
		t.Fatalf("expected default mobile ratio, got %v", res.Config.MobileAspectRatio)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.LogLevel != "info" {
		t.Fatalf("expected default log level, got %q", res.Config.LogLevel)
	}
}

func TestLoadFromPath_PartialSectionsKeepDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", strings.Join([]string{
		"placement:",
		"  overlap_threshold: 0.5",
		"  seed: 42",
		"sizing:",
		"  reference:",
		"    width: 1920",
		"storage:",
		"  backend: sqlite",
		"viewport:",
		"  width: 1280",
		"  height: 720",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Placement.OverlapThreshold != 0.5 || cfg.Placement.Seed != 42 {
		t.Fatalf("placement overrides not applied: %+v", cfg.Placement)
	}
	if cfg.Placement.MaxAttempts != 12 || cfg.Placement.Offset != 32 {
		t.Fatalf("placement defaults lost: %+v", cfg.Placement)
	}
	if cfg.Sizing.Reference != (geometry.Size{Width: 1920, Height: 1440}) {
		t.Fatalf("expected reference width override only, got %+v", cfg.Sizing.Reference)
	}
	if cfg.Storage.Backend != storage.BackendSQLite || cfg.Storage.Key != "windows" {
		t.Fatalf("unexpected storage %+v", cfg.Storage)
	}
	if cfg.Viewport != (geometry.Size{Width: 1280, Height: 720}) {
		t.Fatalf("unexpected viewport %+v", cfg.Viewport)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), "config.yaml") {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_UnknownAppKeyErrors(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", strings.Join([]string{
		"apps:",
		"  - id: notes",
		"    colour: red",
		"",
	}, "\n"))
	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected error for unknown app field")
	}
}

func TestLoadFromPath_ValidationErrorHasSourceContext(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", strings.Join([]string{
		"log_level: info",
		"placement:",
		"  overlap_threshold: 1.5",
		"",
	}, "\n"))

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "placement.overlap_threshold" {
		t.Fatalf("unexpected path %q", verr.Path)
	}
	if verr.Source.Line != 3 {
		t.Fatalf("expected line 3, got %+v", verr.Source)
	}
	if !strings.Contains(err.Error(), ":3:") {
		t.Fatalf("expected line in message, got %v", err)
	}
}

func TestLoadFromPath_AppValidationPointsAtEntry(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", strings.Join([]string{
		"apps:",
		"  - id: notes",
		"    show_in_dock: true",
		"  - id: notes",
		"",
	}, "\n"))

	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}

	path = writeConfig(t, t.TempDir(), "config.yaml", strings.Join([]string{
		"apps:",
		"  - id: notes",
		"    preset: huge",
		"",
	}, "\n"))
	_, err = LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path != "apps[0]" || verr.Source.Line != 2 {
		t.Fatalf("expected apps[0] error at line 2, got %v", err)
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "conf.d/10-a.yaml", "log_level: debug\nmobile_aspect_ratio: 1.2\n")
	writeConfig(t, dir, "conf.d/20-b.yaml", "mobile_aspect_ratio: 1.4\ndesktop:\n  dock_height: 64\n")
	writeConfig(t, dir, "conf.d/ignored.txt", "log_level: error\n")
	path := writeConfig(t, dir, "config.yaml", "include: conf.d\nlog_level: warning\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.LogLevel != "warning" {
		t.Fatalf("expected main file to win, got %q", cfg.LogLevel)
	}
	if cfg.MobileAspectRatio != 1.4 {
		t.Fatalf("expected later include to win, got %v", cfg.MobileAspectRatio)
	}
	if cfg.Desktop.DockHeight != 64 || cfg.Desktop.TopBarHeight != 28 {
		t.Fatalf("unexpected desktop %+v", cfg.Desktop)
	}
	if len(res.Files) != 3 || !strings.HasSuffix(res.Files[2], "config.yaml") {
		t.Fatalf("unexpected load order %v", res.Files)
	}

	_, src, err := Explain(res, "mobile_aspect_ratio")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !strings.HasSuffix(src.File, "20-b.yaml") {
		t.Fatalf("expected source 20-b.yaml, got %+v", src)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "include: b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include: a.yaml\n")

	_, err := LoadFromPath(filepath.Join(dir, "a.yaml"))
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "include: missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for missing include")
	}
	if !strings.Contains(err.Error(), "missing.yaml") || !strings.Contains(err.Error(), ":1:") {
		t.Fatalf("expected include location in error, got %v", err)
	}
}

func TestExplain(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", strings.Join([]string{
		"apps:",
		"  - id: notes",
		"    title: Notes",
		"    preset: small",
		"placement:",
		"  jitter: 10",
		"",
	}, "\n"))
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	tests := []struct {
		path     string
		want     any
		wantKind SourceKind
	}{
		{"placement.jitter", 10, SourceFile},
		{"placement.max_attempts", 12, SourceDefault},
		{"apps[0].preset", "small", SourceFile},
		{"log_level", "info", SourceDefault},
		{"sizing.reference.width", 2560, SourceDefault},
	}
	for _, tt := range tests {
		val, src, err := Explain(res, tt.path)
		if err != nil {
			t.Fatalf("explain %s: %v", tt.path, err)
		}
		if val != tt.want {
			t.Errorf("explain %s: got %#v, want %#v", tt.path, val, tt.want)
		}
		if src.Kind != tt.wantKind {
			t.Errorf("explain %s: got source %s, want %s", tt.path, src.Kind, tt.wantKind)
		}
	}

	if _, _, err := Explain(res, "nope.nothing"); err == nil {
		t.Fatalf("expected unknown path error")
	}
	if _, _, err := Explain(res, "apps[9]"); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		path   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"half viewport", func(c *Config) { c.Viewport.Width = 100 }, "viewport"},
		{"edge margin", func(c *Config) { c.Desktop.EdgeMargin = 0 }, "desktop.edge_margin"},
		{"stagger cycle", func(c *Config) { c.Placement.Cycle = 0 }, "placement.stagger_cycle"},
		{"max attempts", func(c *Config) { c.Placement.MaxAttempts = -1 }, "placement.max_attempts"},
		{"max fraction", func(c *Config) { c.Sizing.MaxFraction = 0 }, "sizing.max_fraction"},
		{"mobile ratio", func(c *Config) { c.MobileAspectRatio = 0 }, "mobile_aspect_ratio"},
		{"backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"key", func(c *Config) { c.Storage.Key = "a/b" }, "storage.key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Path != tt.path {
				t.Fatalf("expected validation error at %s, got %v", tt.path, err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Placement.Seed = 9
	cfg.Storage.Backend = storage.BackendMemory
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if res.Config.Placement.Seed != 9 || res.Config.Storage.Backend != storage.BackendMemory {
		t.Fatalf("saved values lost: %+v", res.Config)
	}
	if len(res.Config.Apps) != len(cfg.Apps) {
		t.Fatalf("expected %d apps, got %d", len(cfg.Apps), len(res.Config.Apps))
	}
}

func TestGetLoggingConfigDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	got := DefaultConfig().GetLoggingConfig()
	if got.File != "/tmp/xdg-data/deskwm/deskwm.log" || got.MaxSizeMB != 10 || got.MaxFiles != 3 {
		t.Fatalf("unexpected logging defaults %+v", got)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("DESKWM_CONFIG", "/etc/deskwm.yaml")
	if got, _ := DefaultConfigPath(); got != "/etc/deskwm.yaml" {
		t.Fatalf("DESKWM_CONFIG ignored, got %q", got)
	}

	dir := t.TempDir()
	t.Setenv("DESKWM_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	if got, _ := DefaultConfigPath(); got != filepath.Join(dir, "deskwm", "config.yaml") {
		t.Fatalf("unexpected XDG path %q", got)
	}
}

func TestLoadFromPath_SharedIncludeLoadsOnce(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "common.yaml", "log_level: debug\n")
	writeConfig(t, dir, "a.yaml", "include: common.yaml\n")
	path := writeConfig(t, dir, "config.yaml", "include:\n  - a.yaml\n  - common.yaml\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected each file once, got %v", res.Files)
	}
	if res.Config.LogLevel != "debug" {
		t.Fatalf("expected included log level, got %q", res.Config.LogLevel)
	}
}
