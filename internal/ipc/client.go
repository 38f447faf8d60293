package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/deskwm/internal/desktop"
	"github.com/1broseidon/deskwm/internal/manager"
	"github.com/1broseidon/deskwm/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for an explicit socket path.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// call sends cmd with an optional payload and decodes the data into out
// when out is non-nil.
func (c *Client) call(cmd CommandType, payload any, out any) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListWindows returns windows in stacking order, bottom first.
func (c *Client) ListWindows(all bool) ([]WindowInfo, error) {
	var data WindowsData
	if err := c.call(CommandListWindows, ListWindowsPayload{All: all}, &data); err != nil {
		return nil, err
	}
	return data.Windows, nil
}

func (c *Client) GetWindow(id string) (*WindowInfo, error) {
	return c.windowCall(CommandGetWindow, IDPayload{ID: id})
}

// OpenWindow opens id. A nil patch opens a registered app with its own
// window state.
func (c *Client) OpenWindow(id string, patch json.RawMessage, focus bool) (*WindowInfo, error) {
	return c.windowCall(CommandOpenWindow, OpenWindowPayload{ID: id, Patch: patch, Focus: focus})
}

func (c *Client) CloseWindow(id string) error {
	return c.call(CommandCloseWindow, IDPayload{ID: id}, nil)
}

// UpdateWindow applies a JSON window patch.
func (c *Client) UpdateWindow(id string, patch json.RawMessage) (*WindowInfo, error) {
	return c.windowCall(CommandUpdateWindow, UpdateWindowPayload{ID: id, Patch: patch})
}

func (c *Client) FocusWindow(id string) (*WindowInfo, error) {
	return c.windowCall(CommandFocusWindow, IDPayload{ID: id})
}

func (c *Client) MinimizeWindow(id string) (*WindowInfo, error) {
	return c.windowCall(CommandMinimizeWindow, IDPayload{ID: id})
}

func (c *Client) RestoreWindow(id string) (*WindowInfo, error) {
	return c.windowCall(CommandRestoreWindow, IDPayload{ID: id})
}

// ToggleMaximize reports whether the window ends up maximized.
func (c *Client) ToggleMaximize(id string) (bool, error) {
	var data ToggleData
	if err := c.call(CommandMaximizeWindow, IDPayload{ID: id}, &data); err != nil {
		return false, err
	}
	return data.State, nil
}

// CreateTemp creates an ad-hoc window and returns its id.
func (c *Client) CreateTemp(def manager.TempWindow) (string, error) {
	var data TempCreatedData
	if err := c.call(CommandCreateTemp, def, &data); err != nil {
		return "", err
	}
	return data.ID, nil
}

func (c *Client) UpdateTemp(id string, patch manager.TempPatch) (*WindowInfo, error) {
	return c.windowCall(CommandUpdateTemp, UpdateTempPayload{ID: id, Patch: patch})
}

func (c *Client) DestroyTemp(id string) error {
	return c.call(CommandDestroyTemp, IDPayload{ID: id}, nil)
}

// DesktopClick toggles edge hiding.
func (c *Client) DesktopClick() (*EdgeData, error) {
	var data EdgeData
	if err := c.call(CommandDesktopClick, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) LaunchApp(id string) (*WindowInfo, error) {
	return c.windowCall(CommandLaunchApp, IDPayload{ID: id})
}

func (c *Client) Dock() ([]desktop.DockItem, error) {
	var data DockData
	if err := c.call(CommandDock, nil, &data); err != nil {
		return nil, err
	}
	return data.Items, nil
}

func (c *Client) ActivateDockItem(id string) (*DockActivateData, error) {
	var data DockActivateData
	if err := c.call(CommandDockActivate, IDPayload{ID: id}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SetFragment follows a deep link.
func (c *Client) SetFragment(hash string) error {
	return c.call(CommandSetFragment, FragmentPayload{Hash: hash}, nil)
}

func (c *Client) SetViewport(width, height int) (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandSetViewport, ViewportPayload{Width: width, Height: height}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Exec runs a terminal command line in the daemon.
func (c *Client) Exec(line string) (string, error) {
	var data ExecData
	if err := c.call(CommandExec, ExecPayload{Line: line}, &data); err != nil {
		return "", err
	}
	return data.Output, nil
}

// Reset clears all persisted window state.
func (c *Client) Reset() error {
	return c.call(CommandReset, nil, nil)
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}

func (c *Client) windowCall(cmd CommandType, payload any) (*WindowInfo, error) {
	var info WindowInfo
	if err := c.call(cmd, payload, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
