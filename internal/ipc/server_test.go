package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/1broseidon/sabiwm/internal/config"
	"github.com/1broseidon/sabiwm/internal/core"
	"github.com/1broseidon/sabiwm/internal/daemon"
	"github.com/1broseidon/sabiwm/internal/platform"
)

type fakeController struct {
	mu         sync.Mutex
	state      *daemon.State
	cfg        *config.Config
	windows    []daemon.WindowInfo
	dispatched []daemon.Command
	reloads    int
	reloadErr  error
}

func newFakeController() *fakeController {
	ws := core.NewWorkspace[platform.WindowID](1, "dev", nil).Add(7).Add(9)
	return &fakeController{
		state: &daemon.State{
			Screen: core.NewScreen(ws, 0, core.NewRectangle(0, 24, 1920, 1056)),
			Layout: "grid",
			Screens: []core.Rectangle{
				core.NewRectangle(0, 24, 1920, 1056),
				core.NewRectangle(1920, 0, 1280, 1024),
			},
		},
		cfg: config.DefaultConfig(),
		windows: []daemon.WindowInfo{
			{ID: 9, Name: "shell", Class: "XTerm", Focused: true},
			{ID: 7, Name: "editor", Class: "Emacs"},
		},
	}
}

func (f *fakeController) Snapshot() *daemon.State { return f.state }

func (f *fakeController) Windows(ctx context.Context) ([]daemon.WindowInfo, error) {
	return f.windows, nil
}

func (f *fakeController) Dispatch(ctx context.Context, cmd daemon.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cmd.Kind == daemon.CommandSetLayout {
		if _, ok := f.cfg.Layouts[cmd.Layout]; !ok {
			return &daemon.UnknownLayoutError{Name: cmd.Layout}
		}
	}
	f.dispatched = append(f.dispatched, cmd)
	return nil
}

func (f *fakeController) Config() *config.Config { return f.cfg }

func (f *fakeController) Reload(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	return f.reloadErr
}

func (f *fakeController) commands() []daemon.CommandKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]daemon.CommandKind, len(f.dispatched))
	for i, cmd := range f.dispatched {
		kinds[i] = cmd.Kind
	}
	return kinds
}

func startServer(t *testing.T, controller Controller) (*Server, *Client, string) {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	srv, err := NewServer(ServerConfig{
		SocketPath: filepath.Join(dir, "sabiwm.sock"),
		ConfigPath: configPath,
		Version:    "test",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, controller)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)
	return srv, NewClientWithSocket(srv.SocketPath()), configPath
}

func TestServer_Status(t *testing.T) {
	_, client, _ := startServer(t, newFakeController())

	status, err := client.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	want := StatusData{
		Workspace:     "dev",
		WorkspaceID:   1,
		ActiveLayout:  "grid",
		WindowCount:   2,
		FocusedWindow: 9,
		Screen:        ScreenInfo{ID: 0, X: 0, Y: 24, Width: 1920, Height: 1056},
		UptimeSeconds: status.UptimeSeconds,
		DaemonRunning: true,
		Version:       "test",
	}
	if *status != want {
		t.Fatalf("status = %+v, want %+v", *status, want)
	}
	if err := client.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestServer_WindowsAndScreens(t *testing.T) {
	_, client, _ := startServer(t, newFakeController())

	windows, err := client.GetWindows()
	if err != nil {
		t.Fatalf("GetWindows: %v", err)
	}
	want := []WindowInfo{
		{ID: 9, Name: "shell", Class: "XTerm", Focused: true},
		{ID: 7, Name: "editor", Class: "Emacs"},
	}
	if windows.Workspace != "dev" || !reflect.DeepEqual(windows.Windows, want) {
		t.Fatalf("windows = %+v", windows)
	}

	screens, err := client.GetScreens()
	if err != nil {
		t.Fatalf("GetScreens: %v", err)
	}
	if len(screens.Screens) != 2 || screens.Screens[1] != (ScreenInfo{ID: 1, X: 1920, Width: 1280, Height: 1024}) {
		t.Fatalf("screens = %+v", screens.Screens)
	}
}

func TestServer_FocusAndSwap(t *testing.T) {
	controller := newFakeController()
	_, client, _ := startServer(t, controller)

	calls := []func() error{
		func() error { return client.Focus(DirectionUp) },
		func() error { return client.Focus(DirectionDown) },
		func() error { return client.Swap(DirectionUp) },
		func() error { return client.Swap(DirectionDown) },
		func() error { return client.Swap(DirectionMaster) },
		client.CycleLayout,
	}
	for i, call := range calls {
		if err := call(); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	want := []daemon.CommandKind{
		daemon.CommandFocusUp,
		daemon.CommandFocusDown,
		daemon.CommandSwapUp,
		daemon.CommandSwapDown,
		daemon.CommandSwapMaster,
		daemon.CommandCycleLayout,
	}
	if got := controller.commands(); !reflect.DeepEqual(got, want) {
		t.Fatalf("dispatched %v, want %v", got, want)
	}

	if err := client.Focus(DirectionMaster); err == nil {
		t.Fatal("expected focus master to be rejected")
	}
	if err := client.Swap("sideways"); err == nil {
		t.Fatal("expected invalid swap direction to be rejected")
	}
}

func TestServer_Layouts(t *testing.T) {
	controller := newFakeController()
	_, client, configPath := startServer(t, controller)

	layouts, err := client.ListLayouts()
	if err != nil {
		t.Fatalf("ListLayouts: %v", err)
	}
	if layouts.ActiveLayout != "grid" || layouts.DefaultLayout != config.DefaultBuiltinLayout {
		t.Fatalf("layouts = %+v", layouts)
	}
	if layouts.Layouts[0] != config.DefaultBuiltinLayout || len(layouts.Layouts) != len(controller.cfg.Layouts) {
		t.Fatalf("layout names = %v", layouts.Layouts)
	}

	if err := client.ApplyLayout("rows"); err != nil {
		t.Fatalf("ApplyLayout: %v", err)
	}
	err = client.ApplyLayout("spiral")
	if err == nil || !strings.Contains(err.Error(), `layout "spiral" not found`) {
		t.Fatalf("expected unknown layout error, got %v", err)
	}
	if err := client.ApplyLayout(""); err == nil {
		t.Fatal("expected error for empty layout name")
	}

	if err := client.SetDefaultLayout("columns", true); err != nil {
		t.Fatalf("SetDefaultLayout: %v", err)
	}
	res, err := config.LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("load saved config: %v", err)
	}
	if res.Config.DefaultLayout != "columns" {
		t.Fatalf("saved default_layout = %q", res.Config.DefaultLayout)
	}
	if controller.cfg.DefaultLayout != config.DefaultBuiltinLayout {
		t.Fatal("SetDefaultLayout modified the live config")
	}
	if got := controller.commands(); len(got) != 2 || got[1] != daemon.CommandSetLayout {
		t.Fatalf("dispatched %v", got)
	}
}

func TestServer_Reload(t *testing.T) {
	controller := newFakeController()
	_, client, _ := startServer(t, controller)

	if err := client.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	controller.mu.Lock()
	controller.reloadErr = errors.New("bad yaml")
	controller.mu.Unlock()
	if err := client.Reload(); err == nil || !strings.Contains(err.Error(), "bad yaml") {
		t.Fatalf("expected reload error, got %v", err)
	}
	controller.mu.Lock()
	defer controller.mu.Unlock()
	if controller.reloads != 2 {
		t.Fatalf("reloads = %d", controller.reloads)
	}
}

func TestServer_RejectsBadRequests(t *testing.T) {
	srv, _, _ := startServer(t, newFakeController())

	send := func(line string) Response {
		t.Helper()
		conn, err := net.Dial("unix", srv.SocketPath())
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close()
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			t.Fatalf("write: %v", err)
		}
		data, err := bufio.NewReader(conn).ReadBytes('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return resp
	}

	if resp := send(`{"command":"EXPLODE"}`); resp.Status != "ERROR" || !strings.Contains(resp.Error, "Unknown command") {
		t.Fatalf("unknown command response = %+v", resp)
	}
	if resp := send(`not json`); resp.Status != "ERROR" || !strings.Contains(resp.Error, "Invalid request") {
		t.Fatalf("invalid request response = %+v", resp)
	}
}

func TestServer_StopRemovesSocket(t *testing.T) {
	srv, client, _ := startServer(t, newFakeController())
	srv.Stop()

	if _, err := os.Stat(srv.SocketPath()); !os.IsNotExist(err) {
		t.Fatalf("socket still present after Stop: %v", err)
	}
	if err := client.Ping(); err == nil {
		t.Fatal("expected ping to fail after Stop")
	}
}
