package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/deskwm/internal/desktop"
	"github.com/1broseidon/deskwm/internal/ipc"
)

var (
	desktopStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("235"))

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	dockStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	activeDockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	minimizedDockStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")).
				Background(lipgloss.Color("238")).
				Padding(0, 1)

	idleDockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Background(lipgloss.Color("238")).
			Padding(0, 1)

	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okDot      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
	downDot    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("●")
)

// renderStatusBar shows daemon connectivity, the deep link and counters.
func renderStatusBar(status *ipc.StatusData, connected bool, width int) string {
	if !connected || status == nil {
		return statusBarStyle.Width(width).Render(downDot + " daemon not running")
	}

	parts := []string{okDot + " deskwm"}
	if status.Fragment != "" {
		parts = append(parts, "#"+status.Fragment)
	}
	parts = append(parts, fmt.Sprintf("%d/%d visible", status.VisibleCount, status.WindowCount))
	if status.TempCount > 0 {
		parts = append(parts, fmt.Sprintf("%d temp", status.TempCount))
	}
	parts = append(parts, fmt.Sprintf("%dx%d", status.Viewport.Width, status.Viewport.Height))
	if status.ViewportSource != "" {
		parts = append(parts, dimStyle.Render("("+status.ViewportSource+")"))
	}
	return statusBarStyle.Width(width).Render(strings.Join(parts, "  "))
}

// dockLabel renders one dock entry with its 1-based shortcut.
func dockLabel(i int, item desktop.DockItem) string {
	label := item.Title
	if label == "" {
		label = item.ID
	}
	if i < 9 {
		label = fmt.Sprintf("%d:%s", i+1, label)
	}
	switch {
	case item.Active():
		return activeDockStyle.Render(label)
	case item.Minimized:
		return minimizedDockStyle.Render(label)
	default:
		return idleDockStyle.Render(label)
	}
}

func renderDock(items []desktop.DockItem, width int) string {
	if len(items) == 0 {
		return dockStyle.Width(width).Render(dimStyle.Render("dock empty"))
	}
	labels := make([]string, 0, len(items))
	for i, item := range items {
		labels = append(labels, dockLabel(i, item))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, intersperse(labels, " ")...)
	return dockStyle.Width(width).Render(row)
}

// intersperse inserts sep between each element of items.
func intersperse(items []string, sep string) []string {
	if len(items) <= 1 {
		return items
	}
	result := make([]string, 0, len(items)*2-1)
	for i, item := range items {
		if i > 0 {
			result = append(result, sep)
		}
		result = append(result, item)
	}
	return result
}
