// Package tui is an interactive dashboard for a running sabiwm daemon. It
// drives the daemon over IPC and edits the configuration file in place.
package tui

import (
	"errors"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/sabiwm/internal/config"
	"github.com/1broseidon/sabiwm/internal/ipc"
)

// Daemon is the IPC surface the dashboard uses. *ipc.Client satisfies it.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	GetWindows() (*ipc.WindowsData, error)
	Focus(dir ipc.Direction) error
	Swap(dir ipc.Direction) error
	ListLayouts() (*ipc.LayoutsData, error)
	ApplyLayout(name string) error
	CycleLayout() error
	SetDefaultLayout(name string, applyNow bool) error
	Reload() error
}

var _ Daemon = (*ipc.Client)(nil)

// TUI represents the terminal user interface.
type TUI struct {
	configPath string
	daemon     Daemon
}

// New creates a TUI for the config file at configPath, or the default
// location when empty.
func New(configPath string) *TUI {
	return &TUI{
		configPath: configPath,
		daemon:     ipc.NewClient(),
	}
}

// Run starts the TUI and blocks until the user quits.
func (t *TUI) Run() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	path := t.configPath
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return err
		}
	}

	p := tea.NewProgram(newModel(path, t.daemon), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// editorCommand builds the command that opens path in $EDITOR, falling back
// to $VISUAL and then vi.
func editorCommand(path string) *exec.Cmd {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		parts = []string{"vi"}
	}
	return exec.Command(parts[0], append(parts[1:], path)...)
}
