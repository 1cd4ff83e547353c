package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/sabiwm/internal/ipc"
)

const ServerName = "sabiwm"

// Daemon is the part of the IPC client the tools use.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	GetWindows() (*ipc.WindowsData, error)
	GetScreens() (*ipc.ScreensData, error)
	Focus(dir ipc.Direction) error
	Swap(dir ipc.Direction) error
	ListLayouts() (*ipc.LayoutsData, error)
	ApplyLayout(name string) error
	CycleLayout() error
	Reload() error
}

// Server exposes the window manager to MCP clients. Every tool is a thin
// wrapper around one daemon IPC request.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates a new MCP server talking to daemon.
func NewServer(daemon Daemon, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		daemon: daemon,
		logger: logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: version,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server starting", "transport", "stdio")
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the managed workspace, the active layout, how many windows are managed and which one has focus.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List the managed windows in stack order. Position 0 is the master slot. Each entry carries the X11 window id, title, class and whether it is focused.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_screens",
		Description: "List the usable area of every screen, with space reserved by panels and docks already removed.",
	}, s.handleListScreens)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "focus_window",
		Description: "Move focus to the previous (up) or next (down) window in the stack. Returns the window list after the move.",
	}, s.handleFocusWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "swap_window",
		Description: "Move the focused window up or down one position, or into the master slot. Focus stays on the moved window. Returns the window list after the move.",
	}, s.handleSwapWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_layouts",
		Description: "List the configured layouts together with the default and active layout.",
	}, s.handleListLayouts)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "apply_layout",
		Description: "Switch the active layout and rearrange the managed windows.",
	}, s.handleApplyLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "cycle_layout",
		Description: "Switch to the next configured layout.",
	}, s.handleCycleLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reload_config",
		Description: "Ask the daemon to re-read its configuration file. Fails without changing anything when the file is invalid.",
	}, s.handleReloadConfig)
}
