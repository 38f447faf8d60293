package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/deskwm/internal/desktop"
	"github.com/1broseidon/deskwm/internal/ipc"
	"github.com/1broseidon/deskwm/internal/manager"
)

const (
	ServerName    = "deskwm"
	ServerVersion = "0.1.0"
)

// Desktop is the daemon surface the tools drive. *ipc.Client implements it.
type Desktop interface {
	GetStatus() (*ipc.StatusData, error)
	ListWindows(all bool) ([]ipc.WindowInfo, error)
	GetWindow(id string) (*ipc.WindowInfo, error)
	OpenWindow(id string, patch json.RawMessage, focus bool) (*ipc.WindowInfo, error)
	CloseWindow(id string) error
	UpdateWindow(id string, patch json.RawMessage) (*ipc.WindowInfo, error)
	FocusWindow(id string) (*ipc.WindowInfo, error)
	MinimizeWindow(id string) (*ipc.WindowInfo, error)
	RestoreWindow(id string) (*ipc.WindowInfo, error)
	CreateTemp(def manager.TempWindow) (string, error)
	UpdateTemp(id string, patch manager.TempPatch) (*ipc.WindowInfo, error)
	DestroyTemp(id string) error
	DesktopClick() (*ipc.EdgeData, error)
	LaunchApp(id string) (*ipc.WindowInfo, error)
	Dock() ([]desktop.DockItem, error)
	Exec(line string) (string, error)
	Reset() error
}

var _ Desktop = (*ipc.Client)(nil)

// Server is the MCP server exposing window management to agents.
type Server struct {
	mcpServer *mcpsdk.Server
	desk      Desktop
	logger    *slog.Logger
}

// NewServer creates a new MCP server over desk. A nil logger discards.
func NewServer(desk Desktop, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{desk: desk, logger: logger}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Show the desktop status: focused window, deep-link fragment, window counts, viewport and usable desktop area.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List windows bottom to top in stacking order. Closed windows are kept (hidden) and only listed with all=true.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_window",
		Description: "Show one window by id, including closed ones, with its position, size, state and rendered content.",
	}, s.handleGetWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "open_window",
		Description: "Open (or re-show) a window by id. New windows get the next z-index and a staggered default position.",
	}, s.handleOpenWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Close a window. The record, including position and size, is kept so reopening restores it.",
	}, s.handleCloseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "focus_window",
		Description: "Bring a window to the front and point the deep-link fragment at it.",
	}, s.handleFocusWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "minimize_window",
		Description: "Minimize a window to the dock. The deep-link fragment moves to the next visible window.",
	}, s.handleMinimizeWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "restore_window",
		Description: "Restore a minimized window and bring it to the front.",
	}, s.handleRestoreWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "update_window",
		Description: "Patch window fields such as position, size, title, maximized or minimized. The z-index cannot be patched; use focus_window.",
	}, s.handleUpdateWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_temp_window",
		Description: "Create an ad-hoc text window. It is placed to avoid covering the focused window unless x and y are given. Returns its id.",
	}, s.handleCreateTempWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "update_temp_window",
		Description: "Change the title or content of a window created with create_temp_window.",
	}, s.handleUpdateTempWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "destroy_temp_window",
		Description: "Remove a window created with create_temp_window.",
	}, s.handleDestroyTempWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "desktop_click",
		Description: "Click the empty desktop: slides all normal windows to their nearest edge, or brings edge-hidden windows back.",
	}, s.handleDesktopClick)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "launch_app",
		Description: "Launch a registered application with its adaptive window size and bring it to the front.",
	}, s.handleLaunchApp)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "dock",
		Description: "List dock applications with their running and minimized state.",
	}, s.handleDock)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "run_command",
		Description: "Run a desktop terminal command: win ls|close|hide|max|min|open|top|reset, kill <id>, help.",
	}, s.handleRunCommand)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reset_windows",
		Description: "Forget all window state, including persisted positions and ad-hoc windows.",
	}, s.handleResetWindows)
}
