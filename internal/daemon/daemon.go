// Package daemon wires the window state, the desktop shell and the IPC
// server into the long-running deskwm process.
package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/1broseidon/deskwm/internal/command"
	"github.com/1broseidon/deskwm/internal/config"
	"github.com/1broseidon/deskwm/internal/desktop"
	"github.com/1broseidon/deskwm/internal/display"
	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/ipc"
	"github.com/1broseidon/deskwm/internal/manager"
	"github.com/1broseidon/deskwm/internal/runtimepath"
	"github.com/1broseidon/deskwm/internal/storage"
	"github.com/1broseidon/deskwm/internal/window"
)

// Options tune a Daemon beyond its config file.
type Options struct {
	// ConfigPath is re-read on reload. Empty uses the default location.
	ConfigPath string
	SocketPath string
	// PIDPath, when set, receives the daemon's pid while it is running.
	PIDPath string
	// Ephemeral keeps window state in memory only.
	Ephemeral bool
	// Probe replaces X11 monitor detection.
	Probe          display.ProbeFunc
	ReconcileEvery time.Duration
	Logger         *slog.Logger
}

// Daemon owns the single writer of window state.
type Daemon struct {
	opts      Options
	logger    *slog.Logger
	closer    io.Closer
	closeOnce sync.Once

	mu  sync.RWMutex
	cfg *config.Config

	kv       storage.KV
	store    *window.Store
	fragment *manager.MemoryFragment
	mgr      *manager.Manager
	shell    *desktop.Shell
	commands *command.Interpreter
	server   *ipc.Server
	sync     *StateSynchronizer

	vpMu     sync.RWMutex
	vpSource display.Source

	unsubscribe func()
}

// New builds the daemon from cfg without starting it.
func New(cfg *config.Config, opts Options) (*Daemon, error) {
	d := &Daemon{opts: opts, cfg: cfg}

	if opts.Logger != nil {
		d.logger = opts.Logger
	} else {
		logger, closer, err := NewLogger(cfg.GetLoggingConfig(), cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to set up logging: %w", err)
		}
		d.logger, d.closer = logger, closer
	}

	kvOpts := storage.Options{Backend: cfg.Storage.Backend, Path: cfg.StoragePath()}
	if opts.Ephemeral {
		kvOpts = storage.Options{Backend: storage.BackendMemory}
	}
	kv, err := storage.Open(kvOpts)
	if err != nil {
		d.closeLog()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	d.kv = kv
	d.logger.Info("storage opened", "backend", kvOpts.Backend, "path", kvOpts.Path)

	reg, err := cfg.Registry()
	if err != nil {
		d.Close()
		return nil, err
	}

	res := d.detector(cfg).Detect()
	d.setViewportSource(res.Source)
	d.logger.Info("viewport resolved",
		"width", res.Viewport.Width,
		"height", res.Viewport.Height,
		"source", res.Source)

	d.store = window.NewStore(kv, window.Options{
		Key:      cfg.Storage.Key,
		Viewport: res.Viewport,
		Stagger:  cfg.Placement.StaggerParams,
		Logger:   d.logger.With("component", "store"),
	})

	placer := geometry.NewPlacer(cfg.Placement.PlacementParams)
	if cfg.Placement.Seed != 0 {
		placer = geometry.NewSeededPlacer(cfg.Placement.PlacementParams, cfg.Placement.Seed)
	}
	d.fragment = manager.NewMemoryFragment()
	d.mgr = manager.New(d.store, manager.Options{
		Chrome:            cfg.Desktop,
		MobileAspectRatio: cfg.MobileAspectRatio,
		Placer:            placer,
		Fragment:          d.fragment,
		Logger:            d.logger.With("component", "manager"),
	})
	d.shell = desktop.NewShell(d.mgr, reg, cfg.Sizing, d.logger.With("component", "shell"))
	d.commands = command.New(d.shell, command.WithReload(d.Reload))
	d.sync = NewStateSynchronizer(kv, d.logger.With("component", "sync"))

	d.server, err = ipc.NewServer(ipc.ServerOptions{
		SocketPath:     opts.SocketPath,
		Shell:          d.shell,
		Commands:       d.commands,
		Reload:         d.Reload,
		ViewportSource: func() string { return string(d.ViewportSource()) },
		Logger:         d.logger.With("component", "ipc"),
	})
	if err != nil {
		d.Close()
		return nil, err
	}

	return d, nil
}

func (d *Daemon) Shell() *desktop.Shell     { return d.shell }
func (d *Daemon) Manager() *manager.Manager { return d.mgr }
func (d *Daemon) Server() *ipc.Server       { return d.server }
func (d *Daemon) Logger() *slog.Logger      { return d.logger }

// Config returns the configuration in effect.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

func (d *Daemon) ViewportSource() display.Source {
	d.vpMu.RLock()
	defer d.vpMu.RUnlock()
	return d.vpSource
}

func (d *Daemon) setViewportSource(src display.Source) {
	d.vpMu.Lock()
	d.vpSource = src
	d.vpMu.Unlock()
}

func (d *Daemon) detector(cfg *config.Config) display.Detector {
	return display.Detector{
		Override: cfg.Viewport,
		Display:  cfg.Display,
		Probe:    d.opts.Probe,
		Logger:   d.logger,
	}
}

// Start restores the deep link, begins persisting it and starts serving
// IPC.
func (d *Daemon) Start() error {
	d.sync.Restore(d.shell)
	d.sync.Attach(d.fragment)
	d.unsubscribe = d.store.Subscribe(d.logCommit)
	if err := d.server.Start(); err != nil {
		return err
	}
	if d.opts.PIDPath != "" {
		if err := runtimepath.WritePID(d.opts.PIDPath); err != nil {
			d.logger.Warn("pid file not written", "path", d.opts.PIDPath, "error", err)
		}
	}
	d.logger.Info("deskwm daemon started",
		"socket", d.server.SocketPath(),
		"windows", d.store.Len())
	return nil
}

// Run starts the daemon and blocks until ctx is cancelled or SIGINT/SIGTERM
// arrives. SIGHUP reloads the configuration.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}
	defer d.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reconciler := NewReconciler(ReconcilerConfig{
		Interval: d.opts.ReconcileEvery,
		Logger:   d.logger.With("component", "reconciler"),
	}, d.mgr.Viewport(), func() display.Result {
		return d.detector(d.Config()).Detect()
	}, d.applyViewport)
	go reconciler.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("shutting down deskwm daemon")
			return nil
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				d.logger.Info("received SIGHUP, reloading config")
				if err := d.Reload(); err != nil {
					d.logger.Error("config reload failed", "error", err)
				}
			default:
				d.logger.Info("shutting down deskwm daemon", "signal", sig.String())
				return nil
			}
		}
	}
}

func (d *Daemon) logCommit(records []window.Record) {
	visible := 0
	for _, r := range records {
		if r.Rendered() {
			visible++
		}
	}
	d.logger.Debug("window state committed", "windows", len(records), "visible", visible)
}

func (d *Daemon) applyViewport(res display.Result) {
	d.setViewportSource(res.Source)
	d.mgr.SetViewport(res.Viewport)
}

// Reload re-reads the config file and applies the application registry,
// sizing and viewport. Storage, chrome and placement changes need a
// restart.
func (d *Daemon) Reload() error {
	var (
		res *config.LoadResult
		err error
	)
	if d.opts.ConfigPath != "" {
		res, err = config.LoadFromPath(d.opts.ConfigPath)
	} else {
		res, err = config.LoadWithSources()
	}
	if err != nil {
		return err
	}
	return d.Apply(res.Config)
}

// Apply swaps in cfg.
func (d *Daemon) Apply(cfg *config.Config) error {
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}

	d.mu.Lock()
	old := d.cfg
	d.cfg = cfg
	d.mu.Unlock()

	d.shell.SetRegistry(reg, cfg.Sizing)
	d.applyViewport(d.detector(cfg).Detect())

	if old != nil && (old.Storage != cfg.Storage || old.Desktop != cfg.Desktop ||
		old.Placement != cfg.Placement || old.MobileAspectRatio != cfg.MobileAspectRatio) {
		d.logger.Warn("storage, desktop, placement and mobile_aspect_ratio changes apply after restart")
	}
	d.logger.Info("config reloaded", "apps", len(reg.Apps()))
	return nil
}

// Close stops serving and releases storage and the log file.
func (d *Daemon) Close() {
	d.closeOnce.Do(func() {
		if d.server != nil {
			d.server.Stop()
		}
		if d.unsubscribe != nil {
			d.unsubscribe()
		}
		if d.opts.PIDPath != "" {
			os.Remove(d.opts.PIDPath)
		}
		if d.kv != nil {
			if err := d.kv.Close(); err != nil {
				d.logger.Warn("failed to close storage", "error", err)
			}
		}
		d.closeLog()
	})
}

func (d *Daemon) closeLog() {
	if d.closer != nil {
		d.closer.Close()
	}
}
