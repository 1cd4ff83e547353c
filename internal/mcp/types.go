package mcp

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// StatusOutput is the output for the get_status tool.
type StatusOutput struct {
	Workspace     string `json:"workspace"`
	ActiveLayout  string `json:"active_layout"`
	WindowCount   int    `json:"window_count"`
	FocusedWindow uint32 `json:"focused_window,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// WindowInfo describes a single managed window.
type WindowInfo struct {
	Position int    `json:"position"`
	ID       uint32 `json:"id"`
	Name     string `json:"name"`
	Class    string `json:"class"`
	Focused  bool   `json:"focused"`
}

// ListWindowsOutput is the output for list_windows, focus_window and
// swap_window.
type ListWindowsOutput struct {
	Workspace string       `json:"workspace"`
	Windows   []WindowInfo `json:"windows"`
}

// ListScreensInput is the input for the list_screens tool.
type ListScreensInput struct{}

// ScreenInfo is the usable area of a screen.
type ScreenInfo struct {
	ID     int    `json:"id"`
	X      int32  `json:"x"`
	Y      int32  `json:"y"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// ListScreensOutput is the output for the list_screens tool.
type ListScreensOutput struct {
	Screens []ScreenInfo `json:"screens"`
}

// FocusWindowInput is the input for the focus_window tool.
type FocusWindowInput struct {
	Direction string `json:"direction" jsonschema:"Either up or down. Focus wraps around at either end of the stack."`
}

// SwapWindowInput is the input for the swap_window tool.
type SwapWindowInput struct {
	Direction string `json:"direction" jsonschema:"One of up, down or master. master moves the focused window to the first position."`
}

// ListLayoutsInput is the input for the list_layouts tool.
type ListLayoutsInput struct{}

// ListLayoutsOutput is the output for list_layouts, apply_layout and
// cycle_layout.
type ListLayoutsOutput struct {
	Layouts       []string `json:"layouts"`
	DefaultLayout string   `json:"default_layout"`
	ActiveLayout  string   `json:"active_layout"`
}

// ApplyLayoutInput is the input for the apply_layout tool.
type ApplyLayoutInput struct {
	Layout string `json:"layout" jsonschema:"Name of a configured layout (see list_layouts)"`
}

// CycleLayoutInput is the input for the cycle_layout tool.
type CycleLayoutInput struct{}

// ReloadConfigInput is the input for the reload_config tool.
type ReloadConfigInput struct{}

// ReloadConfigOutput is the output for the reload_config tool.
type ReloadConfigOutput struct {
	Reloaded bool `json:"reloaded"`
}
