package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/deskwm/internal/desktop"
	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/ipc"
	"github.com/1broseidon/deskwm/internal/manager"
)

// Desktop is the slice of the daemon client the TUI drives.
type Desktop interface {
	GetStatus() (*ipc.StatusData, error)
	ListWindows(all bool) ([]ipc.WindowInfo, error)
	Dock() ([]desktop.DockItem, error)
	FocusWindow(id string) (*ipc.WindowInfo, error)
	CloseWindow(id string) error
	MinimizeWindow(id string) (*ipc.WindowInfo, error)
	ToggleMaximize(id string) (bool, error)
	DesktopClick() (*ipc.EdgeData, error)
	ActivateDockItem(id string) (*ipc.DockActivateData, error)
	CreateTemp(def manager.TempWindow) (string, error)
	Reset() error
}

var _ Desktop = (*ipc.Client)(nil)

const refreshInterval = time.Second

// snapshotMsg carries a full refresh of daemon state.
type snapshotMsg struct {
	status  *ipc.StatusData
	windows []ipc.WindowInfo
	dock    []desktop.DockItem
	err     error
}

// actionMsg reports the outcome of a single IPC action.
type actionMsg struct {
	text string
	err  error
}

type tickMsg time.Time

// model is the root bubbletea model for the TUI.
type model struct {
	desk Desktop
	keys keyMap
	help help.Model

	status    *ipc.StatusData
	windows   []ipc.WindowInfo
	dock      []desktop.DockItem
	connected bool

	form *tempForm

	statusText string
	lastErr    error

	width  int
	height int
}

func newModel(desk Desktop) model {
	return model{
		desk: desk,
		keys: defaultKeyMap(),
		help: help.New(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// refresh fetches status, windows and dock in one round.
func (m model) refresh() tea.Cmd {
	desk := m.desk
	return func() tea.Msg {
		status, err := desk.GetStatus()
		if err != nil {
			return snapshotMsg{err: err}
		}
		windows, err := desk.ListWindows(false)
		if err != nil {
			return snapshotMsg{err: err}
		}
		dock, err := desk.Dock()
		if err != nil {
			return snapshotMsg{err: err}
		}
		return snapshotMsg{status: status, windows: windows, dock: dock}
	}
}

// act runs fn against the daemon and reports its outcome.
func (m model) act(fn func(Desktop) (string, error)) tea.Cmd {
	desk := m.desk
	return func() tea.Msg {
		text, err := fn(desk)
		return actionMsg{text: text, err: err}
	}
}

func (m model) focusedID() string {
	if m.status == nil {
		return ""
	}
	return m.status.FocusedID
}

// nextFocus returns the bottom-most rendered window other than the focused
// one. Raising it each time cycles through the whole stack.
func (m model) nextFocus() string {
	stack := stackOrder(m.windows)
	focused := m.focusedID()
	for _, w := range stack {
		if w.ID != focused {
			return w.ID
		}
	}
	return ""
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		return m.updateForm(msg)
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(km)
	}
	if wm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wm.Width
		m.height = wm.Height
		m.help.Width = wm.Width
		return m, nil
	}
	return m.updateState(msg)
}

// updateState applies polling and action results. It runs whether or not
// the form is open.
func (m model) updateState(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tea.Batch(m.refresh(), tick())

	case snapshotMsg:
		if msg.err != nil {
			m.connected = false
			m.lastErr = msg.err
			return m, nil
		}
		m.connected = true
		m.status = msg.status
		m.windows = msg.windows
		m.dock = msg.dock
		return m, nil

	case actionMsg:
		m.statusText = msg.text
		m.lastErr = msg.err
		return m, m.refresh()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	focused := m.focusedID()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()

	case key.Matches(msg, m.keys.Next):
		id := m.nextFocus()
		if id == "" {
			return m, nil
		}
		return m, m.act(func(d Desktop) (string, error) {
			_, err := d.FocusWindow(id)
			return "focused " + id, err
		})

	case key.Matches(msg, m.keys.Close):
		if focused == "" {
			return m, nil
		}
		return m, m.act(func(d Desktop) (string, error) {
			return "closed " + focused, d.CloseWindow(focused)
		})

	case key.Matches(msg, m.keys.Minimize):
		if focused == "" {
			return m, nil
		}
		return m, m.act(func(d Desktop) (string, error) {
			_, err := d.MinimizeWindow(focused)
			return "minimized " + focused, err
		})

	case key.Matches(msg, m.keys.Maximize):
		if focused == "" {
			return m, nil
		}
		return m, m.act(func(d Desktop) (string, error) {
			maximized, err := d.ToggleMaximize(focused)
			if maximized {
				return "maximized " + focused, err
			}
			return "restored " + focused, err
		})

	case key.Matches(msg, m.keys.Desktop):
		return m, m.act(func(d Desktop) (string, error) {
			res, err := d.DesktopClick()
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("desktop click: %s %v", res.Action, res.IDs), nil
		})

	case key.Matches(msg, m.keys.Dock):
		idx := int(msg.String()[0] - '1')
		if idx < 0 || idx >= len(m.dock) {
			return m, nil
		}
		id := m.dock[idx].ID
		return m, m.act(func(d Desktop) (string, error) {
			res, err := d.ActivateDockItem(id)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s %s", res.Action, id), nil
		})

	case key.Matches(msg, m.keys.NewTemp):
		m.form = newTempForm(m.width)
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Reset):
		return m, m.act(func(d Desktop) (string, error) {
			return "windows reset", d.Reset()
		})
	}
	return m, nil
}

func (m model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.form = nil
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
	case tickMsg, snapshotMsg, actionMsg:
		return m.updateState(msg)
	}

	cmd := m.form.Update(msg)
	switch {
	case m.form.Completed():
		def := m.form.definition()
		m.form = nil
		return m, m.act(func(d Desktop) (string, error) {
			id, err := d.CreateTemp(def)
			return "created " + id, err
		})
	case m.form.Aborted():
		m.form = nil
		return m, nil
	}
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.status, m.connected, m.width)
	dock := renderDock(m.dock, m.width)
	helpBar := m.help.View(m.keys)
	message := m.renderMessage()

	used := lipgloss.Height(statusBar) + lipgloss.Height(dock) + lipgloss.Height(helpBar) + lipgloss.Height(message)
	contentHeight := m.height - used
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	if m.form != nil {
		content = lipgloss.NewStyle().Width(m.width).Height(contentHeight).Render(m.form.View())
	} else {
		content = m.renderDesktop(contentHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		content,
		dock,
		message,
		helpBar,
	)
}

func (m model) renderDesktop(height int) string {
	area := geometry.Size{}
	if m.status != nil {
		area = m.status.DesktopArea
		if area.IsZero() {
			area = m.status.Viewport
		}
	}
	lines := renderDesktop(m.windows, area, m.focusedID(), m.width, height)
	return desktopStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m model) renderMessage() string {
	if m.lastErr != nil {
		return errorStyle.Render("error: " + m.lastErr.Error())
	}
	if m.statusText != "" {
		return dimStyle.Render(m.statusText)
	}
	return dimStyle.Render(" ")
}
