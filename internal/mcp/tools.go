package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/ipc"
	"github.com/1broseidon/deskwm/internal/manager"
)

func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("id is required")
	}
	return id, nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	st, err := s.desk.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{
		Fragment:     st.Fragment,
		FocusedID:    st.FocusedID,
		WindowCount:  st.WindowCount,
		VisibleCount: st.VisibleCount,
		TempCount:    st.TempCount,
		Viewport:     st.Viewport,
		DesktopArea:  st.DesktopArea,
	}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	infos, err := s.desk.ListWindows(args.All)
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	out := ListWindowsOutput{Windows: make([]Window, 0, len(infos))}
	for _, w := range infos {
		out.Windows = append(out.Windows, toWindow(w))
		if w.Visible && !w.Minimized {
			// Bottom-to-top order: the last rendered window is focused.
			out.Focused = w.ID
		}
	}
	return nil, out, nil
}

func (s *Server) handleOpenWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args OpenWindowInput) (*mcpsdk.CallToolResult, WindowOutput, error) {
	id, err := requireID(args.ID)
	if err != nil {
		return nil, WindowOutput{}, err
	}
	var patch json.RawMessage
	if len(args.Patch) > 0 {
		if patch, err = json.Marshal(args.Patch); err != nil {
			return nil, WindowOutput{}, fmt.Errorf("invalid patch: %w", err)
		}
	}
	w, err := s.desk.OpenWindow(id, patch, args.Focus)
	if err != nil {
		return nil, WindowOutput{}, err
	}
	s.logger.Info("mcp open_window", "id", id, "focus", args.Focus)
	return nil, WindowOutput{Window: toWindow(*w)}, nil
}

func (s *Server) handleCloseWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowIDInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	id, err := requireID(args.ID)
	if err != nil {
		return nil, OKOutput{}, err
	}
	if err := s.desk.CloseWindow(id); err != nil {
		return nil, OKOutput{}, err
	}
	s.logger.Info("mcp close_window", "id", id)
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleFocusWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowIDInput) (*mcpsdk.CallToolResult, WindowOutput, error) {
	id, err := requireID(args.ID)
	if err != nil {
		return nil, WindowOutput{}, err
	}
	w, err := s.desk.FocusWindow(id)
	if err != nil {
		return nil, WindowOutput{}, err
	}
	return nil, WindowOutput{Window: toWindow(*w)}, nil
}

func (s *Server) handleGetWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowIDInput) (*mcpsdk.CallToolResult, WindowOutput, error) {
	return s.windowTool(args.ID, s.desk.GetWindow)
}

func (s *Server) handleMinimizeWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowIDInput) (*mcpsdk.CallToolResult, WindowOutput, error) {
	return s.windowTool(args.ID, s.desk.MinimizeWindow)
}

func (s *Server) handleRestoreWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowIDInput) (*mcpsdk.CallToolResult, WindowOutput, error) {
	return s.windowTool(args.ID, s.desk.RestoreWindow)
}

// windowTool runs a single-id call and wraps the resulting window.
func (s *Server) windowTool(rawID string, call func(string) (*ipc.WindowInfo, error)) (*mcpsdk.CallToolResult, WindowOutput, error) {
	id, err := requireID(rawID)
	if err != nil {
		return nil, WindowOutput{}, err
	}
	w, err := call(id)
	if err != nil {
		return nil, WindowOutput{}, err
	}
	return nil, WindowOutput{Window: toWindow(*w)}, nil
}

func (s *Server) handleUpdateWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args UpdateWindowInput) (*mcpsdk.CallToolResult, WindowOutput, error) {
	id, err := requireID(args.ID)
	if err != nil {
		return nil, WindowOutput{}, err
	}
	if len(args.Patch) == 0 {
		return nil, WindowOutput{}, fmt.Errorf("patch is required")
	}
	patch, err := json.Marshal(args.Patch)
	if err != nil {
		return nil, WindowOutput{}, fmt.Errorf("invalid patch: %w", err)
	}
	w, err := s.desk.UpdateWindow(id, patch)
	if err != nil {
		return nil, WindowOutput{}, err
	}
	s.logger.Info("mcp update_window", "id", id, "fields", len(args.Patch))
	return nil, WindowOutput{Window: toWindow(*w)}, nil
}

func (s *Server) handleCreateTempWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args CreateTempWindowInput) (*mcpsdk.CallToolResult, CreateTempWindowOutput, error) {
	if (args.X == nil) != (args.Y == nil) {
		return nil, CreateTempWindowOutput{}, fmt.Errorf("x and y must be given together")
	}
	if args.Width < 0 || args.Height < 0 {
		return nil, CreateTempWindowOutput{}, fmt.Errorf("width and height must not be negative")
	}

	def := manager.TempWindow{
		ID:    strings.TrimSpace(args.ID),
		Title: args.Title,
		Body:  args.Body,
	}
	if args.Width > 0 || args.Height > 0 {
		size := geometry.Size{Width: args.Width, Height: args.Height}
		if size.Width == 0 {
			size.Width = geometry.DefaultWindowWidth
		}
		if size.Height == 0 {
			size.Height = geometry.DefaultWindowHeight
		}
		def.Size = &size
	}
	if args.X != nil {
		def.Position = &geometry.Point{X: *args.X, Y: *args.Y}
	}

	id, err := s.desk.CreateTemp(def)
	if err != nil {
		return nil, CreateTempWindowOutput{}, err
	}
	s.logger.Info("mcp create_temp_window", "id", id, "title", args.Title)
	return nil, CreateTempWindowOutput{ID: id}, nil
}

func (s *Server) handleUpdateTempWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args UpdateTempWindowInput) (*mcpsdk.CallToolResult, WindowOutput, error) {
	id, err := requireID(args.ID)
	if err != nil {
		return nil, WindowOutput{}, err
	}
	w, err := s.desk.UpdateTemp(id, manager.TempPatch{Title: args.Title, Body: args.Body})
	if err != nil {
		return nil, WindowOutput{}, err
	}
	return nil, WindowOutput{Window: toWindow(*w)}, nil
}

func (s *Server) handleDestroyTempWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowIDInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	id, err := requireID(args.ID)
	if err != nil {
		return nil, OKOutput{}, err
	}
	if err := s.desk.DestroyTemp(id); err != nil {
		return nil, OKOutput{}, err
	}
	s.logger.Info("mcp destroy_temp_window", "id", id)
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleDesktopClick(_ context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, DesktopClickOutput, error) {
	res, err := s.desk.DesktopClick()
	if err != nil {
		return nil, DesktopClickOutput{}, err
	}
	return nil, DesktopClickOutput{Action: res.Action, IDs: res.IDs}, nil
}

func (s *Server) handleLaunchApp(_ context.Context, _ *mcpsdk.CallToolRequest, args LaunchAppInput) (*mcpsdk.CallToolResult, WindowOutput, error) {
	id, err := requireID(args.App)
	if err != nil {
		return nil, WindowOutput{}, err
	}
	w, err := s.desk.LaunchApp(id)
	if err != nil {
		return nil, WindowOutput{}, err
	}
	s.logger.Info("mcp launch_app", "app", id)
	return nil, WindowOutput{Window: toWindow(*w)}, nil
}

func (s *Server) handleDock(_ context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, DockOutput, error) {
	items, err := s.desk.Dock()
	if err != nil {
		return nil, DockOutput{}, err
	}
	return nil, DockOutput{Items: items}, nil
}

func (s *Server) handleRunCommand(_ context.Context, _ *mcpsdk.CallToolRequest, args RunCommandInput) (*mcpsdk.CallToolResult, RunCommandOutput, error) {
	if strings.TrimSpace(args.Line) == "" {
		return nil, RunCommandOutput{}, fmt.Errorf("line is required")
	}
	out, err := s.desk.Exec(args.Line)
	if err != nil {
		return nil, RunCommandOutput{}, err
	}
	s.logger.Info("mcp run_command", "line", args.Line)
	return nil, RunCommandOutput{Output: out}, nil
}

func (s *Server) handleResetWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if err := s.desk.Reset(); err != nil {
		return nil, OKOutput{}, err
	}
	s.logger.Info("mcp reset_windows")
	return nil, OKOutput{OK: true}, nil
}
