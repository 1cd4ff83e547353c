package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/sabiwm/internal/runtimepath"
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
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket creates a client talking to the daemon at socketPath.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    2 * requestTimeout,
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

func (c *Client) call(command CommandType, payload interface{}, out interface{}) error {
	req := &Request{Command: command}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", command, err)
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
		return fmt.Errorf("failed to parse %s data: %w", command, err)
	}
	return nil
}

// Reload asks the daemon to re-read its configuration file.
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

// GetWindows retrieves the managed windows in workspace order.
func (c *Client) GetWindows() (*WindowsData, error) {
	var data WindowsData
	if err := c.call(CommandGetWindows, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetScreens retrieves the usable area of every screen.
func (c *Client) GetScreens() (*ScreensData, error) {
	var data ScreensData
	if err := c.call(CommandGetScreens, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Focus moves focus up or down the stack.
func (c *Client) Focus(dir Direction) error {
	return c.call(CommandFocus, DirectionPayload{Direction: dir}, nil)
}

// Swap moves the focused window up, down or into the master slot.
func (c *Client) Swap(dir Direction) error {
	return c.call(CommandSwap, DirectionPayload{Direction: dir}, nil)
}

// ListLayouts retrieves available layouts and current selection.
func (c *Client) ListLayouts() (*LayoutsData, error) {
	var data LayoutsData
	if err := c.call(CommandListLayouts, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ApplyLayout sets the daemon's active layout.
func (c *Client) ApplyLayout(layoutName string) error {
	return c.call(CommandApplyLayout, ApplyLayoutPayload{LayoutName: layoutName}, nil)
}

// CycleLayout switches to the next configured layout.
func (c *Client) CycleLayout() error {
	return c.call(CommandCycleLayout, nil, nil)
}

// SetDefaultLayout updates default_layout in the config file and optionally
// applies it right away.
func (c *Client) SetDefaultLayout(layoutName string, applyNow bool) error {
	return c.call(CommandSetDefaultLayout, SetDefaultLayoutPayload{
		LayoutName: layoutName,
		ApplyNow:   applyNow,
	}, nil)
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
