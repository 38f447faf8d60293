package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/deskwm/internal/desktop"
	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/manager"
	"github.com/1broseidon/deskwm/internal/window"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload         CommandType = "RELOAD"
	CommandGetStatus      CommandType = "GET_STATUS"
	CommandListWindows    CommandType = "LIST_WINDOWS"
	CommandGetWindow      CommandType = "GET_WINDOW"
	CommandOpenWindow     CommandType = "OPEN_WINDOW"
	CommandCloseWindow    CommandType = "CLOSE_WINDOW"
	CommandUpdateWindow   CommandType = "UPDATE_WINDOW"
	CommandFocusWindow    CommandType = "FOCUS_WINDOW"
	CommandMinimizeWindow CommandType = "MINIMIZE_WINDOW"
	CommandRestoreWindow  CommandType = "RESTORE_WINDOW"
	CommandMaximizeWindow CommandType = "MAXIMIZE_WINDOW"
	CommandCreateTemp     CommandType = "CREATE_TEMP"
	CommandUpdateTemp     CommandType = "UPDATE_TEMP"
	CommandDestroyTemp    CommandType = "DESTROY_TEMP"
	CommandDesktopClick   CommandType = "DESKTOP_CLICK"
	CommandLaunchApp      CommandType = "LAUNCH_APP"
	CommandDock           CommandType = "DOCK"
	CommandDockActivate   CommandType = "DOCK_ACTIVATE"
	CommandSetFragment    CommandType = "SET_FRAGMENT"
	CommandSetViewport    CommandType = "SET_VIEWPORT"
	CommandExec           CommandType = "EXEC"
	CommandReset          CommandType = "RESET"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Fragment       string            `json:"fragment"`
	WindowCount    int               `json:"window_count"`
	VisibleCount   int               `json:"visible_count"`
	TempCount      int               `json:"temp_count"`
	FocusedID      string            `json:"focused_id,omitempty"`
	Viewport       geometry.Viewport `json:"viewport"`
	DesktopArea    geometry.Size     `json:"desktop_area"`
	ViewportSource string            `json:"viewport_source,omitempty"`
	UptimeSeconds  int64             `json:"uptime_seconds"`
	DaemonRunning  bool              `json:"daemon_running"`
}

// WindowInfo is a record as seen by clients: the persisted fields plus what
// only the daemon can compute.
type WindowInfo struct {
	window.Record
	Content string `json:"content,omitempty"`
	Mobile  bool   `json:"mobile"`
	Temp    bool   `json:"temp"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []WindowInfo `json:"windows"`
}

// ListWindowsPayload filters LIST_WINDOWS. Without All, hidden windows are
// left out.
type ListWindowsPayload struct {
	All bool `json:"all,omitempty"`
}

// IDPayload addresses a single window or app.
type IDPayload struct {
	ID string `json:"id"`
}

// OpenWindowPayload opens id. Without a patch, registered apps open with
// their own window state.
type OpenWindowPayload struct {
	ID    string          `json:"id"`
	Patch json.RawMessage `json:"patch,omitempty"`
	Focus bool            `json:"focus,omitempty"`
}

// UpdateWindowPayload carries a JSON window patch.
type UpdateWindowPayload struct {
	ID    string          `json:"id"`
	Patch json.RawMessage `json:"patch"`
}

// ToggleData reports the resulting flag of a toggle.
type ToggleData struct {
	ID    string `json:"id"`
	State bool   `json:"state"`
}

// TempCreatedData represents the data returned by CREATE_TEMP
type TempCreatedData struct {
	ID string `json:"id"`
}

// UpdateTempPayload patches a temp window.
type UpdateTempPayload struct {
	ID    string            `json:"id"`
	Patch manager.TempPatch `json:"patch"`
}

// EdgeData represents the data returned by DESKTOP_CLICK
type EdgeData struct {
	Action manager.EdgeAction `json:"action"`
	IDs    []string           `json:"ids,omitempty"`
}

// DockData represents the data returned by DOCK
type DockData struct {
	Items []desktop.DockItem `json:"items"`
}

// DockActivateData represents the data returned by DOCK_ACTIVATE
type DockActivateData struct {
	Action desktop.DockAction `json:"action"`
	Window WindowInfo         `json:"window"`
}

// FragmentPayload is a deep link, with or without the leading '#'.
type FragmentPayload struct {
	Hash string `json:"hash"`
}

// ViewportPayload sets the desktop viewport.
type ViewportPayload struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ExecPayload is one terminal command line.
type ExecPayload struct {
	Line string `json:"line"`
}

// ExecData is the terminal output of EXEC.
type ExecData struct {
	Output string `json:"output"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
