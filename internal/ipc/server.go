package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/sabiwm/internal/config"
	"github.com/1broseidon/sabiwm/internal/core"
	"github.com/1broseidon/sabiwm/internal/daemon"
	"github.com/1broseidon/sabiwm/internal/runtimepath"
)

// requestTimeout bounds how long a request may wait on the reconciler.
const requestTimeout = 5 * time.Second

// Controller is the daemon surface the IPC server drives.
type Controller interface {
	Snapshot() *daemon.State
	Windows(ctx context.Context) ([]daemon.WindowInfo, error)
	Dispatch(ctx context.Context, cmd daemon.Command) error
	Config() *config.Config
	Reload(ctx context.Context) error
}

// ServerConfig holds configuration for the IPC server.
type ServerConfig struct {
	// SocketPath defaults to runtimepath.SocketPath().
	SocketPath string
	// ConfigPath is where SET_DEFAULT_LAYOUT saves the configuration.
	ConfigPath string
	Version    string
	Logger     *slog.Logger
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	configPath   string
	version      string
	listener     net.Listener
	controller   Controller
	logger       *slog.Logger
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
	conns        sync.WaitGroup
}

// NewServer creates a new IPC server
func NewServer(cfg ServerConfig, controller Controller) (*Server, error) {
	socketPath := cfg.SocketPath
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		configPath: cfg.ConfigPath,
		version:    cfg.Version,
		controller: controller,
		logger:     logger,
		startTime:  time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

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
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection serves a single newline-terminated JSON request.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * requestTimeout))

	reader := bufio.NewReader(conn)

	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Debug("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	resp := s.handleCommand(ctx, req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal IPC response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Debug("failed to send IPC response", "error", err)
	}
}

func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	s.logger.Debug("IPC request", "command", string(req.Command))

	switch req.Command {
	case CommandReload:
		return s.handleReload(ctx)
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetWindows:
		return s.handleGetWindows(ctx)
	case CommandGetScreens:
		return s.handleGetScreens()
	case CommandFocus:
		return s.handleFocus(ctx, req.Payload)
	case CommandSwap:
		return s.handleSwap(ctx, req.Payload)
	case CommandListLayouts:
		return s.handleListLayouts()
	case CommandApplyLayout:
		return s.handleApplyLayout(ctx, req.Payload)
	case CommandCycleLayout:
		return s.dispatch(ctx, daemon.CycleLayout())
	case CommandSetDefaultLayout:
		return s.handleSetDefaultLayout(ctx, req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload(ctx context.Context) *Response {
	s.logger.Info("IPC: reload requested")
	if err := s.controller.Reload(ctx); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetStatus() *Response {
	st := s.controller.Snapshot()
	ws := st.Workspace()

	status := StatusData{
		Workspace:     ws.Tag,
		WorkspaceID:   ws.ID,
		ActiveLayout:  st.Layout,
		WindowCount:   ws.Len(),
		Screen:        screenInfo(int(st.Screen.ID), st.Screen.Bounds),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
		Version:       s.version,
	}
	if focused, ok := st.Focused(); ok {
		status.FocusedWindow = uint32(focused)
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleGetWindows(ctx context.Context) *Response {
	infos, err := s.controller.Windows(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to list windows: %v", err))
	}

	data := WindowsData{
		Workspace: s.controller.Snapshot().Workspace().Tag,
		Windows:   make([]WindowInfo, len(infos)),
	}
	for i, info := range infos {
		data.Windows[i] = WindowInfo{
			ID:      uint32(info.ID),
			Name:    info.Name,
			Class:   info.Class,
			Focused: info.Focused,
		}
	}

	resp, _ := NewOKResponse(data)
	return resp
}

func (s *Server) handleGetScreens() *Response {
	st := s.controller.Snapshot()
	data := ScreensData{Screens: make([]ScreenInfo, len(st.Screens))}
	for i, r := range st.Screens {
		data.Screens[i] = screenInfo(i, r)
	}

	resp, _ := NewOKResponse(data)
	return resp
}

func (s *Server) handleFocus(ctx context.Context, payload json.RawMessage) *Response {
	var req DirectionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid focus payload: %v", err))
	}
	switch req.Direction {
	case DirectionUp:
		return s.dispatch(ctx, daemon.FocusUp())
	case DirectionDown:
		return s.dispatch(ctx, daemon.FocusDown())
	default:
		return NewErrorResponse(fmt.Sprintf("Invalid focus direction: %q", req.Direction))
	}
}

func (s *Server) handleSwap(ctx context.Context, payload json.RawMessage) *Response {
	var req DirectionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid swap payload: %v", err))
	}
	switch req.Direction {
	case DirectionUp:
		return s.dispatch(ctx, daemon.SwapUp())
	case DirectionDown:
		return s.dispatch(ctx, daemon.SwapDown())
	case DirectionMaster:
		return s.dispatch(ctx, daemon.SwapMaster())
	default:
		return NewErrorResponse(fmt.Sprintf("Invalid swap direction: %q", req.Direction))
	}
}

func (s *Server) handleListLayouts() *Response {
	cfg := s.controller.Config()
	data := LayoutsData{
		Layouts:       cfg.LayoutNames(),
		DefaultLayout: cfg.DefaultLayout,
		ActiveLayout:  s.controller.Snapshot().Layout,
	}

	resp, _ := NewOKResponse(data)
	return resp
}

func (s *Server) handleApplyLayout(ctx context.Context, payload json.RawMessage) *Response {
	var req ApplyLayoutPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid apply payload: %v", err))
	}
	if req.LayoutName == "" {
		return NewErrorResponse("layout_name is required")
	}
	return s.dispatch(ctx, daemon.SetLayout(req.LayoutName))
}

func (s *Server) handleSetDefaultLayout(ctx context.Context, payload json.RawMessage) *Response {
	var req SetDefaultLayoutPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid set default payload: %v", err))
	}
	if req.LayoutName == "" {
		return NewErrorResponse("layout_name is required")
	}
	if s.configPath == "" {
		return NewErrorResponse("no config path to save to")
	}

	cfg := s.controller.Config().Clone()
	if _, ok := cfg.Layouts[req.LayoutName]; !ok {
		return NewErrorResponse(fmt.Sprintf("Unknown layout: %s", req.LayoutName))
	}
	cfg.DefaultLayout = req.LayoutName
	if err := cfg.SaveTo(s.configPath); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to save config: %v", err))
	}
	s.logger.Info("IPC: default layout saved", "layout", req.LayoutName, "path", s.configPath)

	if req.ApplyNow {
		return s.dispatch(ctx, daemon.SetLayout(req.LayoutName))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) dispatch(ctx context.Context, cmd daemon.Command) *Response {
	if err := s.controller.Dispatch(ctx, cmd); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to %s: %v", cmd.Kind, err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func screenInfo(id int, r core.Rectangle) ScreenInfo {
	return ScreenInfo{ID: id, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop closes the listener, waits for in-flight requests and removes the
// socket.
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
