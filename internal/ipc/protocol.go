package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload           CommandType = "RELOAD"
	CommandGetStatus        CommandType = "GET_STATUS"
	CommandGetWindows       CommandType = "GET_WINDOWS"
	CommandGetScreens       CommandType = "GET_SCREENS"
	CommandFocus            CommandType = "FOCUS"
	CommandSwap             CommandType = "SWAP"
	CommandListLayouts      CommandType = "LIST_LAYOUTS"
	CommandApplyLayout      CommandType = "APPLY_LAYOUT"
	CommandCycleLayout      CommandType = "CYCLE_LAYOUT"
	CommandSetDefaultLayout CommandType = "SET_DEFAULT_LAYOUT"
)

// Direction selects the neighbour a FOCUS or SWAP command acts on.
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionMaster Direction = "master" // SWAP only
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
	Workspace     string     `json:"workspace"`
	WorkspaceID   uint32     `json:"workspace_id"`
	ActiveLayout  string     `json:"active_layout"`
	WindowCount   int        `json:"window_count"`
	FocusedWindow uint32     `json:"focused_window,omitempty"`
	Screen        ScreenInfo `json:"screen"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	DaemonRunning bool       `json:"daemon_running"`
	Version       string     `json:"version,omitempty"`
}

// WindowInfo describes one managed window.
type WindowInfo struct {
	ID      uint32 `json:"id"`
	Name    string `json:"name"`
	Class   string `json:"class"`
	Focused bool   `json:"focused"`
}

// WindowsData represents the data returned by GET_WINDOWS. Windows are in
// workspace order; the first one holds the master slot.
type WindowsData struct {
	Workspace string       `json:"workspace"`
	Windows   []WindowInfo `json:"windows"`
}

// ScreenInfo represents the usable area of a single screen.
type ScreenInfo struct {
	ID     int    `json:"id"`
	X      int32  `json:"x"`
	Y      int32  `json:"y"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// ScreensData represents the data returned by GET_SCREENS
type ScreensData struct {
	Screens []ScreenInfo `json:"screens"`
}

// DirectionPayload is the payload of FOCUS and SWAP.
type DirectionPayload struct {
	Direction Direction `json:"direction"`
}

type LayoutsData struct {
	Layouts       []string `json:"layouts"`
	DefaultLayout string   `json:"default_layout"`
	ActiveLayout  string   `json:"active_layout"`
}

type ApplyLayoutPayload struct {
	LayoutName string `json:"layout_name"`
}

type SetDefaultLayoutPayload struct {
	LayoutName string `json:"layout_name"`
	ApplyNow   bool   `json:"apply_now,omitempty"`
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
