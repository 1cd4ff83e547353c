package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/sabiwm/internal/ipc"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	status, err := s.daemon.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{
		Workspace:     status.Workspace,
		ActiveLayout:  status.ActiveLayout,
		WindowCount:   status.WindowCount,
		FocusedWindow: status.FocusedWindow,
		UptimeSeconds: status.UptimeSeconds,
	}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	out, err := s.windows()
	return nil, out, err
}

func (s *Server) handleListScreens(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListScreensInput) (*mcpsdk.CallToolResult, ListScreensOutput, error) {
	data, err := s.daemon.GetScreens()
	if err != nil {
		return nil, ListScreensOutput{}, err
	}
	out := ListScreensOutput{Screens: make([]ScreenInfo, len(data.Screens))}
	for i, sc := range data.Screens {
		out.Screens[i] = ScreenInfo{ID: sc.ID, X: sc.X, Y: sc.Y, Width: sc.Width, Height: sc.Height}
	}
	return nil, out, nil
}

func (s *Server) handleFocusWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args FocusWindowInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	dir := ipc.Direction(args.Direction)
	if dir != ipc.DirectionUp && dir != ipc.DirectionDown {
		return nil, ListWindowsOutput{}, fmt.Errorf("direction must be up or down, got %q", args.Direction)
	}
	if err := s.daemon.Focus(dir); err != nil {
		return nil, ListWindowsOutput{}, err
	}
	s.logger.Info("MCP focus", "direction", args.Direction)
	out, err := s.windows()
	return nil, out, err
}

func (s *Server) handleSwapWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args SwapWindowInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	dir := ipc.Direction(args.Direction)
	switch dir {
	case ipc.DirectionUp, ipc.DirectionDown, ipc.DirectionMaster:
	default:
		return nil, ListWindowsOutput{}, fmt.Errorf("direction must be up, down or master, got %q", args.Direction)
	}
	if err := s.daemon.Swap(dir); err != nil {
		return nil, ListWindowsOutput{}, err
	}
	s.logger.Info("MCP swap", "direction", args.Direction)
	out, err := s.windows()
	return nil, out, err
}

func (s *Server) handleListLayouts(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListLayoutsInput) (*mcpsdk.CallToolResult, ListLayoutsOutput, error) {
	out, err := s.layouts()
	return nil, out, err
}

func (s *Server) handleApplyLayout(_ context.Context, _ *mcpsdk.CallToolRequest, args ApplyLayoutInput) (*mcpsdk.CallToolResult, ListLayoutsOutput, error) {
	if args.Layout == "" {
		return nil, ListLayoutsOutput{}, fmt.Errorf("layout is required")
	}
	if err := s.daemon.ApplyLayout(args.Layout); err != nil {
		return nil, ListLayoutsOutput{}, err
	}
	s.logger.Info("MCP apply layout", "layout", args.Layout)
	out, err := s.layouts()
	return nil, out, err
}

func (s *Server) handleCycleLayout(_ context.Context, _ *mcpsdk.CallToolRequest, _ CycleLayoutInput) (*mcpsdk.CallToolResult, ListLayoutsOutput, error) {
	if err := s.daemon.CycleLayout(); err != nil {
		return nil, ListLayoutsOutput{}, err
	}
	out, err := s.layouts()
	return nil, out, err
}

func (s *Server) handleReloadConfig(_ context.Context, _ *mcpsdk.CallToolRequest, _ ReloadConfigInput) (*mcpsdk.CallToolResult, ReloadConfigOutput, error) {
	if err := s.daemon.Reload(); err != nil {
		return nil, ReloadConfigOutput{}, err
	}
	return nil, ReloadConfigOutput{Reloaded: true}, nil
}

func (s *Server) windows() (ListWindowsOutput, error) {
	data, err := s.daemon.GetWindows()
	if err != nil {
		return ListWindowsOutput{}, err
	}
	out := ListWindowsOutput{
		Workspace: data.Workspace,
		Windows:   make([]WindowInfo, len(data.Windows)),
	}
	for i, w := range data.Windows {
		out.Windows[i] = WindowInfo{
			Position: i,
			ID:       w.ID,
			Name:     w.Name,
			Class:    w.Class,
			Focused:  w.Focused,
		}
	}
	return out, nil
}

func (s *Server) layouts() (ListLayoutsOutput, error) {
	data, err := s.daemon.ListLayouts()
	if err != nil {
		return ListLayoutsOutput{}, err
	}
	return ListLayoutsOutput{
		Layouts:       data.Layouts,
		DefaultLayout: data.DefaultLayout,
		ActiveLayout:  data.ActiveLayout,
	}, nil
}
