package command

import (
	"errors"
	"strings"
	"testing"

	"github.com/1broseidon/deskwm/internal/desktop"
	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/manager"
	"github.com/1broseidon/deskwm/internal/storage"
	"github.com/1broseidon/deskwm/internal/window"
)

func newTestInterpreter(t *testing.T, opts ...Option) (*Interpreter, *manager.Manager) {
	t.Helper()
	store := window.NewStore(storage.NewMemoryKV(), window.Options{
		Viewport: geometry.Viewport{Width: 2560, Height: 1440},
	})
	mgr := manager.New(store, manager.Options{})
	reg, err := desktop.NewRegistry(desktop.DefaultApps())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	shell := desktop.NewShell(mgr, reg, geometry.DefaultSizingParams(), nil)
	return New(shell, opts...), mgr
}

func run(t *testing.T, in *Interpreter, line string) string {
	t.Helper()
	out, err := in.Exec(line)
	if err != nil {
		t.Fatalf("Exec(%q): %v", line, err)
	}
	return out
}

func TestParse(t *testing.T) {
	a := Parse("win ls -af --force --key=v x")
	if len(a.Positional) != 3 || a.Arg(2) != "x" || a.Arg(5) != "" {
		t.Fatalf("unexpected positional %v", a.Positional)
	}
	if !a.Flags['a'] || !a.Flags['f'] || a.Flags['b'] {
		t.Fatalf("unexpected flags %v", a.Flags)
	}
	if a.Kwargs["force"] != "true" || a.Kwargs["key"] != "v" {
		t.Fatalf("unexpected kwargs %v", a.Kwargs)
	}
}

func TestWinList(t *testing.T) {
	in, mgr := newTestInterpreter(t)

	if out := run(t, in, "win ls"); out != "no windows" {
		t.Fatalf("expected empty listing, got %q", out)
	}

	run(t, in, "win open profile")
	run(t, in, "win open projects")
	mgr.CloseWindow("projects")

	out := run(t, in, "win ls")
	if !strings.Contains(out, "profile") || strings.Contains(out, "projects") {
		t.Fatalf("expected only visible windows:\n%s", out)
	}
	if !strings.Contains(out, "480x800") || !strings.Contains(out, "normal") {
		t.Fatalf("expected size and status columns:\n%s", out)
	}

	out = run(t, in, "win list -a")
	if !strings.Contains(out, "projects") || !strings.Contains(out, "hidden") {
		t.Fatalf("expected hidden window with -a:\n%s", out)
	}
}

func TestWinSubcommands(t *testing.T) {
	in, mgr := newTestInterpreter(t)
	run(t, in, "win o profile")
	run(t, in, "win o projects")

	tests := []struct {
		line  string
		want  string
		check func(r window.Record) bool
	}{
		{"win max profile", "maximized Profile", func(r window.Record) bool { return r.Maximized }},
		{"win m profile", "restored Profile", func(r window.Record) bool { return !r.Maximized }},
		{"win min profile", "minimized Profile", func(r window.Record) bool { return r.Minimized }},
		{"win minimize profile", "restored Profile", func(r window.Record) bool { return !r.Minimized }},
		{"win h profile", "hid Profile", func(r window.Record) bool { return r.Minimized && r.Visible }},
		{"win top profile", "brought Profile to front", func(r window.Record) bool { return true }},
		{"win c profile", "closed Profile", func(r window.Record) bool { return !r.Visible }},
	}
	for _, tt := range tests {
		if got := run(t, in, tt.line); got != tt.want {
			t.Fatalf("%q: got %q, want %q", tt.line, got, tt.want)
		}
		r, _ := mgr.GetWindowByID("profile")
		if !tt.check(r) {
			t.Fatalf("%q: unexpected state %+v", tt.line, r)
		}
	}
}

func TestWinMessages(t *testing.T) {
	in, _ := newTestInterpreter(t)

	tests := []struct {
		line string
		want string
	}{
		{"win close", "usage: win close <id>"},
		{"win close ghost", `window "ghost" not found`},
		{"win frobnicate", `win: unknown subcommand "frobnicate"`},
		{"kill", "usage: kill <id>"},
		{"kill ghost", `kill: no window "ghost"`},
		{"nope", "command not found: nope"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := run(t, in, tt.line); got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestKill(t *testing.T) {
	in, mgr := newTestInterpreter(t)
	run(t, in, "win open terminal")
	if got := run(t, in, "kill terminal"); got != "killed terminal" {
		t.Fatalf("unexpected output %q", got)
	}
	if r, _ := mgr.GetWindowByID("terminal"); r.Visible {
		t.Fatalf("expected terminal closed")
	}
}

func TestWinReset(t *testing.T) {
	reloads := 0
	in, mgr := newTestInterpreter(t, WithReload(func() error {
		reloads++
		return nil
	}))
	run(t, in, "win open profile")

	if got := run(t, in, "win reset"); got != "window state reset" {
		t.Fatalf("unexpected output %q", got)
	}
	if len(mgr.Windows()) != 0 || reloads != 0 {
		t.Fatalf("expected cleared state without reload")
	}

	run(t, in, "win open profile")
	if got := run(t, in, "win r -f"); got != "window state reset, desktop reloaded" {
		t.Fatalf("unexpected output %q", got)
	}
	if reloads != 1 {
		t.Fatalf("expected reload hook, got %d calls", reloads)
	}
}

func TestWinResetReloadError(t *testing.T) {
	in, _ := newTestInterpreter(t, WithReload(func() error { return errors.New("boom") }))
	if _, err := in.Exec("win reset --force"); err == nil {
		t.Fatalf("expected reload error")
	}
}

func TestHelpListsCommands(t *testing.T) {
	in, _ := newTestInterpreter(t)
	out := run(t, in, "help")
	for _, name := range []string{"help", "kill", "win"} {
		if !strings.Contains(out, name) {
			t.Fatalf("help missing %q:\n%s", name, out)
		}
	}
}
