// Package command implements the desktop terminal's window commands.
package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/1broseidon/deskwm/internal/desktop"
	"github.com/1broseidon/deskwm/internal/window"
)

// Args is a parsed command line. Short flags are split into single
// characters ("-af" sets a and f); "--name" and "--name=value" become kwargs.
type Args struct {
	Positional []string
	Flags      map[rune]bool
	Kwargs     map[string]string
}

// Parse splits a command line on whitespace.
func Parse(line string) Args {
	a := Args{Flags: map[rune]bool{}, Kwargs: map[string]string{}}
	for _, tok := range strings.Fields(line) {
		switch {
		case strings.HasPrefix(tok, "--") && len(tok) > 2:
			k, v, _ := strings.Cut(tok[2:], "=")
			if v == "" {
				v = "true"
			}
			a.Kwargs[k] = v
		case strings.HasPrefix(tok, "-") && len(tok) > 1:
			for _, r := range tok[1:] {
				a.Flags[r] = true
			}
		default:
			a.Positional = append(a.Positional, tok)
		}
	}
	return a
}

// Arg returns the i-th positional argument or "".
func (a Args) Arg(i int) string {
	if i < len(a.Positional) {
		return a.Positional[i]
	}
	return ""
}

// Handler runs one command and returns its output.
type Handler func(a Args) (string, error)

type entry struct {
	description string
	run         Handler
}

// Interpreter dispatches terminal commands against the desktop shell.
type Interpreter struct {
	shell    *desktop.Shell
	reload   func() error
	commands map[string]entry
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithReload sets the hook behind "win reset -f".
func WithReload(fn func() error) Option {
	return func(in *Interpreter) { in.reload = fn }
}

// New returns an interpreter with the built-in commands registered.
func New(shell *desktop.Shell, opts ...Option) *Interpreter {
	in := &Interpreter{shell: shell, commands: map[string]entry{}}
	for _, opt := range opts {
		opt(in)
	}
	in.Register("win", "manage windows: ls [-a] | close | hide | max | min | open | top | reset [-f]", in.win)
	in.Register("kill", "close a window: kill <id>", in.kill)
	in.Register("help", "list commands", in.help)
	return in
}

// Register adds or replaces a command.
func (in *Interpreter) Register(name, description string, run Handler) {
	in.commands[name] = entry{description: description, run: run}
}

// Exec runs a command line. Unknown commands and bad arguments produce
// user-facing text; only failures of the underlying state are errors.
func (in *Interpreter) Exec(line string) (string, error) {
	args := Parse(line)
	name := args.Arg(0)
	if name == "" {
		return "", nil
	}
	cmd, ok := in.commands[name]
	if !ok {
		return fmt.Sprintf("command not found: %s", name), nil
	}
	return cmd.run(args)
}

func (in *Interpreter) help(Args) (string, error) {
	names := make([]string, 0, len(in.commands))
	for name := range in.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "  %-6s %s\n", name, in.commands[name].description)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (in *Interpreter) kill(a Args) (string, error) {
	id := a.Arg(1)
	if id == "" {
		return "usage: kill <id>", nil
	}
	mgr := in.shell.Manager()
	r, ok := mgr.GetWindowByID(id)
	if !ok {
		return fmt.Sprintf("kill: no window %q", id), nil
	}
	mgr.CloseWindow(r.ID)
	return fmt.Sprintf("killed %s", r.ID), nil
}

func (in *Interpreter) win(a Args) (string, error) {
	sub := a.Arg(1)
	id := a.Arg(2)
	mgr := in.shell.Manager()

	switch sub {
	case "ls", "list":
		return in.list(a.Flags['a']), nil

	case "reset", "r":
		if err := mgr.ResetLocalWindows(); err != nil {
			return "", err
		}
		if a.Flags['f'] || a.Kwargs["force"] == "true" {
			if in.reload != nil {
				if err := in.reload(); err != nil {
					return "", fmt.Errorf("reload failed: %w", err)
				}
			}
			return "window state reset, desktop reloaded", nil
		}
		return "window state reset", nil

	case "open", "o":
		if id == "" {
			return usage(sub), nil
		}
		r := in.shell.Open(id)
		return fmt.Sprintf("opened %s", titleOf(r)), nil

	case "close", "c", "hide", "h", "max", "maximize", "m", "min", "minimize", "top", "t":
		if id == "" {
			return usage(sub), nil
		}
		r, ok := mgr.GetWindowByID(id)
		if !ok {
			return fmt.Sprintf("window %q not found", id), nil
		}
		return in.act(sub, r), nil

	case "":
		return "usage: win <ls|close|hide|max|min|open|top|reset> [id]", nil
	}
	return fmt.Sprintf("win: unknown subcommand %q", sub), nil
}

func (in *Interpreter) act(sub string, r window.Record) string {
	mgr := in.shell.Manager()
	title := titleOf(r)

	switch sub {
	case "close", "c":
		mgr.CloseWindow(r.ID)
		return fmt.Sprintf("closed %s", title)
	case "hide", "h":
		mgr.Minimize(r.ID)
		return fmt.Sprintf("hid %s", title)
	case "max", "maximize", "m":
		if maximized, _ := mgr.ToggleMaximize(r.ID); maximized {
			return fmt.Sprintf("maximized %s", title)
		}
		return fmt.Sprintf("restored %s", title)
	case "min", "minimize":
		if minimized, _ := mgr.ToggleMinimize(r.ID); minimized {
			return fmt.Sprintf("minimized %s", title)
		}
		return fmt.Sprintf("restored %s", title)
	default:
		mgr.BringToFront(r.ID)
		return fmt.Sprintf("brought %s to front", title)
	}
}

func (in *Interpreter) list(all bool) string {
	var rows [][]string
	for _, r := range in.shell.Manager().Windows() {
		if !r.Visible && !all {
			continue
		}
		rows = append(rows, []string{
			r.ID,
			titleOf(r),
			fmt.Sprintf("%dx%d", r.Size.Width, r.Size.Height),
			strings.Join(r.Status(), ","),
		})
	}
	if len(rows) == 0 {
		return "no windows"
	}
	return RenderTable([]string{"ID", "TITLE", "SIZE", "STATUS"}, rows)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// RenderTable draws rows with a rounded border.
func RenderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

func usage(sub string) string {
	return fmt.Sprintf("usage: win %s <id>", sub)
}

func titleOf(r window.Record) string {
	if r.Title == "" {
		return r.ID
	}
	return r.Title
}
