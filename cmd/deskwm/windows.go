package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/1broseidon/deskwm/internal/command"
	"github.com/1broseidon/deskwm/internal/desktop"
	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/ipc"
	"github.com/1broseidon/deskwm/internal/manager"
)

// runWin forwards to the daemon's command interpreter, which owns the
// win subcommand grammar and its messages.
func runWin(args []string) int {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		out, err := ipc.NewClient().Exec("win")
		if err != nil {
			return fail(err)
		}
		fmt.Print(ensureNewline(out))
		return 0
	}
	return execLine("win " + strings.Join(args, " "))
}

func runKill(args []string) int {
	if len(args) != 1 || args[0] == "--help" || args[0] == "-h" {
		fmt.Fprintln(os.Stderr, "Usage: deskwm kill <id>")
		return 2
	}
	return execLine("kill " + args[0])
}

func execLine(line string) int {
	out, err := ipc.NewClient().Exec(line)
	if err != nil {
		return fail(err)
	}
	fmt.Print(ensureNewline(out))
	return 0
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func runClick(args []string) int {
	fs := flag.NewFlagSet("click", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskwm click")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Simulate a click on the empty desktop: hides every window")
		fmt.Fprintln(os.Stderr, "to its nearest edge, or restores hidden windows.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	res, err := ipc.NewClient().DesktopClick()
	if err != nil {
		return fail(err)
	}
	if len(res.IDs) == 0 {
		fmt.Println(res.Action)
		return 0
	}
	fmt.Printf("%s: %s\n", res.Action, strings.Join(res.IDs, ", "))
	return 0
}

func runLaunch(args []string) int {
	fs := flag.NewFlagSet("launch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskwm launch [--dock] <app>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Open an application window, or focus it when already open.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	dock := fs.Bool("dock", false, "Behave like a dock click (restore minimized windows)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "launch requires <app>")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	if *dock {
		res, err := client.ActivateDockItem(fs.Arg(0))
		if err != nil {
			return fail(err)
		}
		fmt.Printf("%s %s\n", res.Action, res.Window.ID)
		return 0
	}
	w, err := client.LaunchApp(fs.Arg(0))
	if err != nil {
		return fail(err)
	}
	fmt.Printf("%s at %d,%d %dx%d\n", w.ID, w.Position.X, w.Position.Y, w.Size.Width, w.Size.Height)
	return 0
}

func runDock(args []string) int {
	fs := flag.NewFlagSet("dock", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskwm dock [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List dock entries and their running state.")
	}
	jsonOut := fs.Bool("json", false, "Output dock entries as JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	items, err := ipc.NewClient().Dock()
	if err != nil {
		return fail(err)
	}
	if *jsonOut {
		return printJSON(items)
	}
	writeDock(os.Stdout, items)
	return 0
}

func writeDock(w io.Writer, items []desktop.DockItem) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		state := "-"
		switch {
		case item.Active():
			state = "running"
		case item.Minimized:
			state = "minimized"
		}
		rows = append(rows, []string{item.ID, item.Title, state})
	}
	fmt.Fprintln(w, command.RenderTable([]string{"ID", "TITLE", "STATE"}, rows))
}

func runLink(args []string) int {
	if len(args) != 1 || args[0] == "--help" || args[0] == "-h" {
		fmt.Fprintln(os.Stderr, "Usage: deskwm link <id|#id>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Follow a deep link: open or focus the window it names.")
		return 2
	}
	client := ipc.NewClient()
	if err := client.SetFragment(args[0]); err != nil {
		return fail(err)
	}
	status, err := client.GetStatus()
	if err != nil {
		return fail(err)
	}
	fmt.Printf("fragment: #%s\n", status.Fragment)
	return 0
}

func printTempUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  deskwm temp new [--id ID] --title TITLE [--body TEXT|-] [--width N --height N] [--x N --y N]")
	fmt.Fprintln(w, "  deskwm temp update [--title TITLE] [--body TEXT|-] <id>")
	fmt.Fprintln(w, "  deskwm temp destroy <id>")
}

func runTemp(args []string) int {
	if len(args) == 0 {
		printTempUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printTempUsage(os.Stdout)
		return 0
	}

	client := ipc.NewClient()

	switch args[0] {
	case "new":
		fs := flag.NewFlagSet("new", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		id := fs.String("id", "", "Window id (default: generated)")
		title := fs.String("title", "", "Window title")
		body := fs.String("body", "", "Static body text ('-' reads stdin)")
		width := fs.Int("width", 0, "Width in pixels")
		height := fs.Int("height", 0, "Height in pixels")
		x := fs.Int("x", -1, "Left position (requires --y)")
		y := fs.Int("y", -1, "Top position (requires --x)")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}

		text, err := readBody(*body)
		if err != nil {
			return fail(err)
		}
		def, err := tempDefinition(*id, *title, text, *width, *height, *x, *y)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		newID, err := client.CreateTemp(def)
		if err != nil {
			return fail(err)
		}
		fmt.Println(newID)
		return 0

	case "update":
		fs := flag.NewFlagSet("update", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		title := fs.String("title", "", "New title")
		body := fs.String("body", "", "New body text ('-' reads stdin)")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "temp update requires <id>")
			return 2
		}

		var patch manager.TempPatch
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "title":
				patch.Title = title
			case "body":
				patch.Body = body
			}
		})
		if patch.Body != nil {
			text, err := readBody(*patch.Body)
			if err != nil {
				return fail(err)
			}
			patch.Body = &text
		}
		if patch.Title == nil && patch.Body == nil {
			fmt.Fprintln(os.Stderr, "temp update requires --title or --body")
			return 2
		}
		if _, err := client.UpdateTemp(fs.Arg(0), patch); err != nil {
			return fail(err)
		}
		return 0

	case "destroy":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "temp destroy requires <id>")
			return 2
		}
		if err := client.DestroyTemp(args[1]); err != nil {
			return fail(err)
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown temp subcommand: %s\n\n", args[0])
		printTempUsage(os.Stderr)
		return 2
	}
}

func readBody(body string) (string, error) {
	if body != "-" {
		return body, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read body from stdin: %w", err)
	}
	return string(data), nil
}

// tempDefinition validates CLI flags into a temp window. Negative x/y mean
// unset; zero width/height fall back to the default size.
func tempDefinition(id, title, body string, width, height, x, y int) (manager.TempWindow, error) {
	if strings.TrimSpace(title) == "" {
		return manager.TempWindow{}, fmt.Errorf("--title is required")
	}
	if width < 0 || height < 0 {
		return manager.TempWindow{}, fmt.Errorf("--width and --height must be positive")
	}
	if (x < 0) != (y < 0) {
		return manager.TempWindow{}, fmt.Errorf("--x and --y must be given together")
	}

	def := manager.TempWindow{ID: id, Title: title, Body: body}
	if width > 0 || height > 0 {
		size := geometry.Size{Width: geometry.DefaultWindowWidth, Height: geometry.DefaultWindowHeight}
		if width > 0 {
			size.Width = width
		}
		if height > 0 {
			size.Height = height
		}
		def.Size = &size
	}
	if x >= 0 {
		def.Position = &geometry.Point{X: x, Y: y}
	}
	return def, nil
}
