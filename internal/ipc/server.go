package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/deskwm/internal/command"
	"github.com/1broseidon/deskwm/internal/desktop"
	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/manager"
	"github.com/1broseidon/deskwm/internal/runtimepath"
	"github.com/1broseidon/deskwm/internal/window"
)

// ServerOptions wires a Server to the daemon's state.
type ServerOptions struct {
	// SocketPath defaults to runtimepath.SocketPath().
	SocketPath string
	Shell      *desktop.Shell
	Commands   *command.Interpreter
	// Reload re-reads configuration; RELOAD fails when nil.
	Reload func() error
	// ViewportSource names where the current viewport came from.
	ViewportSource func() string
	Logger         *slog.Logger
}

// Server handles IPC requests from clients
type Server struct {
	socketPath     string
	listener       net.Listener
	shell          *desktop.Shell
	mgr            *manager.Manager
	commands       *command.Interpreter
	reload         func() error
	viewportSource func() string
	logger         *slog.Logger
	startTime      time.Time
	shuttingDown   bool
	shutdownMu     sync.Mutex
	conns          sync.WaitGroup
}

// NewServer creates a new IPC server
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Shell == nil {
		return nil, fmt.Errorf("ipc server requires a desktop shell")
	}
	socketPath := opts.SocketPath
	if socketPath == "" {
		p, err := runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
		socketPath = p
	}
	if opts.Commands == nil {
		opts.Commands = command.New(opts.Shell, command.WithReload(opts.Reload))
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath:     socketPath,
		shell:          opts.Shell,
		mgr:            opts.Shell.Manager(),
		commands:       opts.Commands,
		reload:         opts.Reload,
		viewportSource: opts.ViewportSource,
		logger:         opts.Logger,
		startTime:      time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("ipc server listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("ipc accept error", "error", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection serves one request line and closes the connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(30 * time.Second))

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("ipc read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	start := time.Now()
	resp := s.Handle(req)
	s.logger.Debug("ipc request",
		"command", req.Command,
		"status", resp.Status,
		"duration", time.Since(start),
	)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// Handle processes one request. It is exported so that in-process callers
// (the MCP server, tests) share the socket's semantics.
func (s *Server) Handle(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListWindows:
		return s.handleListWindows(req.Payload)
	case CommandGetWindow:
		return s.handleGetWindow(req.Payload)
	case CommandOpenWindow:
		return s.handleOpenWindow(req.Payload)
	case CommandCloseWindow:
		return s.withID(req.Payload, func(id string) *Response {
			s.mgr.CloseWindow(id)
			return ok(nil)
		})
	case CommandUpdateWindow:
		return s.handleUpdateWindow(req.Payload)
	case CommandFocusWindow:
		return s.withID(req.Payload, func(id string) *Response {
			if _, found := s.mgr.BringToFront(id); !found {
				return notFound(id)
			}
			return s.windowResponse(id)
		})
	case CommandMinimizeWindow:
		return s.withID(req.Payload, func(id string) *Response {
			if !s.mgr.Minimize(id) {
				return notFound(id)
			}
			return s.windowResponse(id)
		})
	case CommandRestoreWindow:
		return s.withID(req.Payload, func(id string) *Response {
			if !s.mgr.Restore(id) {
				return notFound(id)
			}
			return s.windowResponse(id)
		})
	case CommandMaximizeWindow:
		return s.withID(req.Payload, func(id string) *Response {
			state, found := s.mgr.ToggleMaximize(id)
			if !found {
				return notFound(id)
			}
			return ok(ToggleData{ID: id, State: state})
		})
	case CommandCreateTemp:
		return s.handleCreateTemp(req.Payload)
	case CommandUpdateTemp:
		return s.handleUpdateTemp(req.Payload)
	case CommandDestroyTemp:
		return s.withID(req.Payload, func(id string) *Response {
			if !s.mgr.DestroyTempWindow(id) {
				return NewErrorResponse(fmt.Sprintf("no temp window %q", id))
			}
			return ok(nil)
		})
	case CommandDesktopClick:
		res := s.mgr.ToggleEdgeHide()
		return ok(EdgeData{Action: res.Action, IDs: res.IDs})
	case CommandLaunchApp:
		return s.withID(req.Payload, func(id string) *Response {
			r := s.shell.Launch(id)
			return ok(s.info(r))
		})
	case CommandDock:
		return ok(DockData{Items: s.shell.Dock()})
	case CommandDockActivate:
		return s.withID(req.Payload, func(id string) *Response {
			action := s.shell.ActivateDockItem(id)
			r, _ := s.mgr.GetWindowByID(id)
			return ok(DockActivateData{Action: action, Window: s.info(r)})
		})
	case CommandSetFragment:
		return s.handleSetFragment(req.Payload)
	case CommandSetViewport:
		return s.handleSetViewport(req.Payload)
	case CommandExec:
		return s.handleExec(req.Payload)
	case CommandReset:
		if err := s.mgr.ResetLocalWindows(); err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to reset windows: %v", err))
		}
		return ok(nil)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload() *Response {
	s.logger.Info("ipc: received RELOAD")
	if s.reload == nil {
		return NewErrorResponse("reload is not supported")
	}
	if err := s.reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	return ok(nil)
}

func (s *Server) handleGetStatus() *Response {
	records := s.mgr.Windows()
	status := StatusData{
		Fragment:      s.mgr.Fragment(),
		WindowCount:   len(records),
		TempCount:     len(s.mgr.TempWindows()),
		Viewport:      s.mgr.Viewport(),
		DesktopArea:   s.mgr.DesktopArea(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}
	var rendered []window.Record
	for _, r := range records {
		if r.Visible {
			status.VisibleCount++
		}
		if r.Rendered() {
			rendered = append(rendered, r)
		}
	}
	if id, found := window.TopMost(rendered); found {
		status.FocusedID = id
	}
	if s.viewportSource != nil {
		status.ViewportSource = s.viewportSource()
	}
	return ok(status)
}

func (s *Server) handleListWindows(payload json.RawMessage) *Response {
	var req ListWindowsPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid list payload: %v", err))
	}
	out := WindowsData{Windows: []WindowInfo{}}
	for _, r := range window.ByZOrder(s.mgr.Windows()) {
		if !req.All && !r.Visible {
			continue
		}
		out.Windows = append(out.Windows, s.info(r))
	}
	return ok(out)
}

func (s *Server) handleGetWindow(payload json.RawMessage) *Response {
	return s.withID(payload, s.windowResponse)
}

func (s *Server) handleOpenWindow(payload json.RawMessage) *Response {
	var req OpenWindowPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid open payload: %v", err))
	}
	if req.ID == "" {
		return NewErrorResponse("id is required")
	}

	var r window.Record
	if len(req.Patch) == 0 {
		r = s.shell.Open(req.ID)
	} else {
		patch, err := window.ParsePatch(req.Patch)
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		r = s.mgr.OpenWindow(req.ID, patch)
	}
	if req.Focus {
		s.mgr.BringToFront(req.ID)
		r, _ = s.mgr.GetWindowByID(req.ID)
	}
	return ok(s.info(r))
}

func (s *Server) handleUpdateWindow(payload json.RawMessage) *Response {
	var req UpdateWindowPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid update payload: %v", err))
	}
	if req.ID == "" {
		return NewErrorResponse("id is required")
	}
	patch, err := window.ParsePatch(req.Patch)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if !s.mgr.UpdateWindow(req.ID, patch) {
		return notFound(req.ID)
	}
	return s.windowResponse(req.ID)
}

func (s *Server) handleCreateTemp(payload json.RawMessage) *Response {
	var def manager.TempWindow
	if err := decodePayload(payload, &def); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid temp payload: %v", err))
	}
	if def.Size != nil && (def.Size.Width <= 0 || def.Size.Height <= 0) {
		return NewErrorResponse("size must be positive")
	}
	id := s.mgr.CreateTempWindow(def)
	return ok(TempCreatedData{ID: id})
}

func (s *Server) handleUpdateTemp(payload json.RawMessage) *Response {
	var req UpdateTempPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid temp payload: %v", err))
	}
	if req.ID == "" {
		return NewErrorResponse("id is required")
	}
	if !s.mgr.UpdateTempWindow(req.ID, req.Patch) {
		return NewErrorResponse(fmt.Sprintf("no temp window %q", req.ID))
	}
	return s.windowResponse(req.ID)
}

func (s *Server) handleSetFragment(payload json.RawMessage) *Response {
	var req FragmentPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid fragment payload: %v", err))
	}
	s.shell.HandleFragment(req.Hash)
	return ok(nil)
}

func (s *Server) handleSetViewport(payload json.RawMessage) *Response {
	var req ViewportPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid viewport payload: %v", err))
	}
	s.mgr.SetViewport(geometry.Viewport{Width: req.Width, Height: req.Height})
	return s.handleGetStatus()
}

func (s *Server) handleExec(payload json.RawMessage) *Response {
	var req ExecPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid exec payload: %v", err))
	}
	out, err := s.commands.Exec(req.Line)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(ExecData{Output: out})
}

func (s *Server) withID(payload json.RawMessage, fn func(id string) *Response) *Response {
	var req IDPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	if req.ID == "" {
		return NewErrorResponse("id is required")
	}
	return fn(req.ID)
}

func (s *Server) windowResponse(id string) *Response {
	r, found := s.mgr.GetWindowByID(id)
	if !found {
		return notFound(id)
	}
	return ok(s.info(r))
}

func (s *Server) info(r window.Record) WindowInfo {
	return WindowInfo{
		Record:  r,
		Content: s.shell.Content(r),
		Mobile:  s.mgr.IsMobileLayout(r.ID),
		Temp:    s.mgr.IsTemp(r.ID),
	}
}

func decodePayload(payload json.RawMessage, out any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, out)
}

func ok(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func notFound(id string) *Response {
	return NewErrorResponse(fmt.Sprintf("window %q not found", id))
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop closes the listener, waits for in-flight requests and removes the
// socket file.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.conns.Wait()
	os.Remove(s.socketPath)
}
