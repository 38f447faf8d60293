package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/1broseidon/deskwm/internal/config"
	"github.com/1broseidon/deskwm/internal/daemon"
	"github.com/1broseidon/deskwm/internal/ipc"
	"github.com/1broseidon/deskwm/internal/runtimepath"
	"github.com/1broseidon/deskwm/internal/tui"
	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "stop":
		os.Exit(runStop(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "win":
		os.Exit(runWin(os.Args[2:]))
	case "kill":
		os.Exit(runKill(os.Args[2:]))
	case "temp":
		os.Exit(runTemp(os.Args[2:]))
	case "click":
		os.Exit(runClick(os.Args[2:]))
	case "launch":
		os.Exit(runLaunch(os.Args[2:]))
	case "dock":
		os.Exit(runDock(os.Args[2:]))
	case "link":
		os.Exit(runLink(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: deskwm <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the deskwm daemon (foreground)")
	fmt.Fprintln(w, "  stop                Stop the running daemon")
	fmt.Fprintln(w, "  reload              Re-read the config file in the daemon")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  win ...             Window commands (ls, open, close, hide, max, min, top, reset)")
	fmt.Fprintln(w, "  kill <id>           Close a window")
	fmt.Fprintln(w, "  launch <app>        Open or focus an application window")
	fmt.Fprintln(w, "  dock                List dock entries")
	fmt.Fprintln(w, "  click               Simulate a desktop click (edge hide/restore)")
	fmt.Fprintln(w, "  link <id>           Follow a deep link (#id)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  temp new            Create a temporary window")
	fmt.Fprintln(w, "  temp update         Update a temporary window")
	fmt.Fprintln(w, "  temp destroy        Destroy a temporary window")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open interactive desktop view")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'deskwm <command> --help' for command-specific options.")
}

// parseFlags parses args and maps -h to exit code 0 and other errors to 2.
// ok is false when the caller should return code.
func parseFlags(fs *flag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, err)
	return 1
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskwm daemon [--config PATH] [--socket PATH] [--ephemeral]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the window manager daemon in the foreground.")
		fmt.Fprintln(os.Stderr, "SIGHUP reloads the config; SIGINT/SIGTERM stop it.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	path := fs.String("config", "", "Config file path (default: ~/.config/deskwm/config.yaml)")
	socket := fs.String("socket", "", "IPC socket path (default: $XDG_RUNTIME_DIR/deskwm.sock)")
	ephemeral := fs.Bool("ephemeral", false, "Keep window state in memory only")
	reconcile := fs.Duration("reconcile", 5*time.Second, "Viewport re-detection interval")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		return fail(fmt.Errorf("failed to load configuration: %w", err))
	}

	socketPath := *socket
	if socketPath == "" {
		if socketPath, err = runtimepath.SocketPath(); err != nil {
			return fail(err)
		}
	}
	if ipc.NewClientAt(socketPath).Ping() == nil {
		return fail(fmt.Errorf("daemon already running on %s", socketPath))
	}

	pidPath, err := runtimepath.PIDPath()
	if err != nil {
		return fail(err)
	}

	d, err := daemon.New(res.Config, daemon.Options{
		ConfigPath:     *path,
		SocketPath:     socketPath,
		PIDPath:        pidPath,
		Ephemeral:      *ephemeral,
		ReconcileEvery: *reconcile,
	})
	if err != nil {
		return fail(fmt.Errorf("failed to start daemon: %w", err))
	}
	if err := d.Run(context.Background()); err != nil {
		return fail(err)
	}
	return 0
}

func runStop(args []string) int {
	fs := flag.NewFlagSet("stop", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskwm stop")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Send SIGTERM to the daemon recorded in the pid file.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	pidPath, err := runtimepath.PIDPath()
	if err != nil {
		return fail(err)
	}
	pid, err := runtimepath.ReadPID(pidPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fail(fmt.Errorf("daemon not running (no pid file at %s)", pidPath))
		}
		return fail(err)
	}
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fail(fmt.Errorf("failed to signal daemon (pid %d): %w", pid, err))
	}
	fmt.Printf("sent SIGTERM to %d\n", pid)
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskwm reload")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the daemon to re-read its config file.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if err := ipc.NewClient().Reload(); err != nil {
		return fail(err)
	}
	fmt.Println("config reloaded")
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskwm status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	jsonOut := fs.Bool("json", false, "Output status as JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		return fail(err)
	}
	if *jsonOut {
		return printJSON(status)
	}
	fmt.Print(formatStatus(status))
	return 0
}

func formatStatus(s *ipc.StatusData) string {
	fragment := "(none)"
	if s.Fragment != "" {
		fragment = "#" + s.Fragment
	}
	focused := s.FocusedID
	if focused == "" {
		focused = "(none)"
	}
	out := fmt.Sprintf("daemon_running: %v\n", s.DaemonRunning)
	out += fmt.Sprintf("fragment:       %s\n", fragment)
	out += fmt.Sprintf("focused:        %s\n", focused)
	out += fmt.Sprintf("windows:        %d (%d visible, %d temp)\n", s.WindowCount, s.VisibleCount, s.TempCount)
	out += fmt.Sprintf("viewport:       %dx%d (%s)\n", s.Viewport.Width, s.Viewport.Height, s.ViewportSource)
	out += fmt.Sprintf("desktop_area:   %dx%d\n", s.DesktopArea.Width, s.DesktopArea.Height)
	out += fmt.Sprintf("uptime_seconds: %d\n", s.UptimeSeconds)
	return out
}

func printJSON(v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fail(err)
	}
	fmt.Println(string(data))
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  deskwm config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  deskwm config print [--path PATH] [--effective|--defaults]")
		fmt.Fprintln(os.Stderr, "  deskwm config explain [--path PATH] <yaml.path>")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/deskwm/config.yaml)")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}
		res, err := loadConfig(*path)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("config: ok (%d apps, %d files)\n", len(res.Config.Apps), len(res.Files))
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/deskwm/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		printEffective := fs.Bool("effective", false, "Print effective config (default)")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			_ = printEffective // default
			res, err := loadConfig(*path)
			if err != nil {
				return fail(err)
			}
			cfg = res.Config
		}
		data, err := cfg.Marshal()
		if err != nil {
			return fail(err)
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		fs := flag.NewFlagSet("explain", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/deskwm/config.yaml)")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := loadConfig(*path)
		if err != nil {
			return fail(err)
		}
		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			return fail(err)
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			return fail(err)
		}

		fmt.Printf("path: %s\n", queryPath)
		fmt.Printf("source: %s\n", formatSource(src))
		fmt.Printf("value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskwm tui [--socket PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive view of the desktop served by the daemon.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  tab       Cycle focus")
		fmt.Fprintln(os.Stderr, "  1-9       Activate dock entry")
		fmt.Fprintln(os.Stderr, "  x/m/f     Close, minimize, maximize focused window")
		fmt.Fprintln(os.Stderr, "  d         Desktop click")
		fmt.Fprintln(os.Stderr, "  n         New temporary window")
		fmt.Fprintln(os.Stderr, "  ctrl+r    Reset windows")
		fmt.Fprintln(os.Stderr, "  q         Quit")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	socket := fs.String("socket", "", "IPC socket path (default: $XDG_RUNTIME_DIR/deskwm.sock)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	if err := tui.Run(*socket); err != nil {
		return fail(err)
	}
	return 0
}
