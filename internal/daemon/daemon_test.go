package daemon

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/1broseidon/deskwm/internal/config"
	"github.com/1broseidon/deskwm/internal/display"
	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/ipc"
	"github.com/1broseidon/deskwm/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedProbe(w, h int) display.ProbeFunc {
	return func(string) (display.Monitor, error) {
		return display.Monitor{Name: "test", Width: w, Height: h}, nil
	}
}

// shortDir keeps unix socket paths under the platform limit.
func shortDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "deskwmd")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func newTestDaemon(t *testing.T, cfg *config.Config, opts Options) *Daemon {
	t.Helper()
	if opts.SocketPath == "" {
		opts.SocketPath = filepath.Join(shortDir(t), "d.sock")
	}
	if opts.Probe == nil {
		opts.Probe = fixedProbe(1920, 1080)
	}
	opts.Logger = discardLogger()
	d, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestDaemon_ViewportFromProbe(t *testing.T) {
	d := newTestDaemon(t, config.DefaultConfig(), Options{Ephemeral: true})
	if got := d.Manager().Viewport(); got != (geometry.Viewport{Width: 1920, Height: 1080}) {
		t.Fatalf("viewport = %+v, want 1920x1080", got)
	}
	if d.ViewportSource() != display.SourceX11 {
		t.Fatalf("source = %s, want x11", d.ViewportSource())
	}
}

func TestDaemon_ConfigViewportOverride(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Viewport = geometry.Size{Width: 1280, Height: 720}
	d := newTestDaemon(t, cfg, Options{Ephemeral: true})
	if got := d.Manager().Viewport(); got != (geometry.Viewport{Width: 1280, Height: 720}) {
		t.Fatalf("viewport = %+v, want override", got)
	}
	if d.ViewportSource() != display.SourceConfig {
		t.Fatalf("source = %s, want config", d.ViewportSource())
	}
}

func TestDaemon_ServesIPC(t *testing.T) {
	d := newTestDaemon(t, config.DefaultConfig(), Options{Ephemeral: true})
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	c := ipc.NewClientAt(d.Server().SocketPath())
	if _, err := c.LaunchApp("projects"); err != nil {
		t.Fatalf("LaunchApp: %v", err)
	}
	status, err := c.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Fragment != "projects" || status.ViewportSource != string(display.SourceX11) {
		t.Fatalf("status = %+v", status)
	}
}

func TestDaemon_RestartRestoresWindowsAndDeepLink(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = storage.BackendFile
	cfg.Storage.Path = t.TempDir()

	first := newTestDaemon(t, cfg, Options{})
	if err := first.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first.Shell().Launch("skills")
	first.Shell().Launch("projects")
	first.Manager().CloseWindow("projects")
	first.Manager().BringToFront("skills")
	first.Close()

	second := newTestDaemon(t, cfg, Options{})
	if err := second.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := second.Manager().Fragment(); got != "skills" {
		t.Fatalf("fragment after restart = %q, want skills", got)
	}
	r, ok := second.Manager().GetWindowByID("projects")
	if !ok || r.Visible {
		t.Fatalf("projects after restart = %+v, %v; want hidden record", r, ok)
	}
	if r, ok := second.Manager().GetWindowByID("skills"); !ok || !r.Visible {
		t.Fatalf("skills after restart = %+v, %v; want visible", r, ok)
	}
}

func TestDaemon_ResetClearsStoredFragment(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Path = t.TempDir()

	d := newTestDaemon(t, cfg, Options{})
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.Shell().Launch("music")
	if err := d.Manager().ResetLocalWindows(); err != nil {
		t.Fatalf("ResetLocalWindows: %v", err)
	}
	if _, err := d.kv.Get(FragmentKey); err != storage.ErrNotFound {
		t.Fatalf("fragment key after reset: err = %v, want ErrNotFound", err)
	}
}

func TestDaemon_ReloadAppliesRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "apps:\n  - id: notes\n    title: Notes\n    preset: small\n    show_in_dock: true\n")

	d := newTestDaemon(t, config.DefaultConfig(), Options{Ephemeral: true, ConfigPath: path})
	if err := d.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	dock := d.Shell().Dock()
	if len(dock) != 1 || dock[0].ID != "notes" {
		t.Fatalf("dock after reload = %+v", dock)
	}

	writeFile(t, path, "apps:\n  - id: ''\n")
	if err := d.Reload(); err == nil {
		t.Fatalf("Reload with an invalid app should fail")
	}
	if dock := d.Shell().Dock(); len(dock) != 1 || dock[0].ID != "notes" {
		t.Fatalf("failed reload must keep the previous registry, got %+v", dock)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestNewLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "deskwm.log")
	logger, closer, err := NewLogger(config.LoggingConfig{File: path, MaxSizeMB: 1, MaxFiles: 1}, "info")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("hello", "k", "v")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("log file is empty")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestDaemon_PIDFileLifecycle(t *testing.T) {
	dir := shortDir(t)
	pidPath := filepath.Join(dir, "d.pid")
	d := newTestDaemon(t, config.DefaultConfig(), Options{Ephemeral: true, PIDPath: pidPath})
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	data, err := os.ReadFile(pidPath)
	if err != nil {
		t.Fatalf("pid file missing: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("pid file empty")
	}

	d.Close()
	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Fatalf("expected pid file removed on close, got %v", err)
	}
}
