package mcp

import (
	"github.com/1broseidon/deskwm/internal/desktop"
	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/ipc"
	"github.com/1broseidon/deskwm/internal/manager"
)

// NoInput is the input of tools that take no arguments.
type NoInput struct{}

// WindowIDInput addresses one window.
type WindowIDInput struct {
	ID string `json:"id" jsonschema:"required,Window id (an app id such as projects, or a temp-... id)"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	All bool `json:"all,omitempty" jsonschema:"Include closed (hidden) windows"`
}

// Window is the tool view of a window record.
type Window struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Visible    bool           `json:"visible"`
	Minimized  bool           `json:"minimized"`
	Maximized  bool           `json:"maximized"`
	ZIndex     int            `json:"zIndex"`
	Position   geometry.Point `json:"position"`
	Size       geometry.Size  `json:"size"`
	EdgeHidden bool           `json:"isEdgeHidden,omitempty"`
	HiddenEdge string         `json:"hiddenEdge,omitempty"`
	Mobile     bool           `json:"mobile"`
	Temp       bool           `json:"temp"`
	Content    string         `json:"content,omitempty"`
}

func toWindow(w ipc.WindowInfo) Window {
	return Window{
		ID:         w.ID,
		Title:      w.Title,
		Visible:    w.Visible,
		Minimized:  w.Minimized,
		Maximized:  w.Maximized,
		ZIndex:     w.ZIndex,
		Position:   w.Position,
		Size:       w.Size,
		EdgeHidden: w.EdgeHidden,
		HiddenEdge: string(w.HiddenEdge),
		Mobile:     w.Mobile,
		Temp:       w.Temp,
		Content:    w.Content,
	}
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []Window `json:"windows"`
	Focused string   `json:"focused,omitempty"`
}

// WindowOutput wraps a single window.
type WindowOutput struct {
	Window Window `json:"window"`
}

// OpenWindowInput is the input for the open_window tool.
type OpenWindowInput struct {
	ID    string         `json:"id" jsonschema:"required,Window id to open"`
	Patch map[string]any `json:"patch,omitempty" jsonschema:"Optional initial state (title, position, size, colorScheme...). Registered apps use their own state when omitted."`
	Focus bool           `json:"focus,omitempty" jsonschema:"Bring the window to the front after opening"`
}

// UpdateWindowInput is the input for the update_window tool.
type UpdateWindowInput struct {
	ID    string         `json:"id" jsonschema:"required,Window id"`
	Patch map[string]any `json:"patch" jsonschema:"required,Fields to change, e.g. {\"position\":{\"x\":10,\"y\":40}}. Unknown fields are rejected."`
}

// OKOutput acknowledges a tool call without other data.
type OKOutput struct {
	OK bool `json:"ok"`
}

// CreateTempWindowInput is the input for the create_temp_window tool.
type CreateTempWindowInput struct {
	ID     string `json:"id,omitempty" jsonschema:"Optional id; generated when empty"`
	Title  string `json:"title" jsonschema:"required,Window title"`
	Body   string `json:"body,omitempty" jsonschema:"Text content of the window"`
	Width  int    `json:"width,omitempty" jsonschema:"Width in pixels (default 400)"`
	Height int    `json:"height,omitempty" jsonschema:"Height in pixels (default 300)"`
	X      *int   `json:"x,omitempty" jsonschema:"Left edge; placed automatically when x and y are omitted"`
	Y      *int   `json:"y,omitempty" jsonschema:"Top edge; placed automatically when x and y are omitted"`
}

// CreateTempWindowOutput is the output for the create_temp_window tool.
type CreateTempWindowOutput struct {
	ID string `json:"id"`
}

// UpdateTempWindowInput is the input for the update_temp_window tool.
type UpdateTempWindowInput struct {
	ID    string  `json:"id" jsonschema:"required,Temp window id"`
	Title *string `json:"title,omitempty" jsonschema:"New title"`
	Body  *string `json:"body,omitempty" jsonschema:"New content"`
}

// DesktopClickOutput is the output for the desktop_click tool.
type DesktopClickOutput struct {
	Action manager.EdgeAction `json:"action"`
	IDs    []string           `json:"ids,omitempty"`
}

// LaunchAppInput is the input for the launch_app tool.
type LaunchAppInput struct {
	App string `json:"app" jsonschema:"required,Application id from the dock (profile, projects, ...)"`
}

// DockOutput is the output for the dock tool.
type DockOutput struct {
	Items []desktop.DockItem `json:"items"`
}

// RunCommandInput is the input for the run_command tool.
type RunCommandInput struct {
	Line string `json:"line" jsonschema:"required,Terminal command line, e.g. 'win ls -a' or 'kill projects'"`
}

// RunCommandOutput is the output for the run_command tool.
type RunCommandOutput struct {
	Output string `json:"output"`
}

// StatusOutput is the output for the get_status tool.
type StatusOutput struct {
	Fragment     string            `json:"fragment"`
	FocusedID    string            `json:"focused_id,omitempty"`
	WindowCount  int               `json:"window_count"`
	VisibleCount int               `json:"visible_count"`
	TempCount    int               `json:"temp_count"`
	Viewport     geometry.Viewport `json:"viewport"`
	DesktopArea  geometry.Size     `json:"desktop_area"`
}
