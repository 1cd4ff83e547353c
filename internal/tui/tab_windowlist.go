package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/sabiwm/internal/ipc"
)

// windowItem implements list.Item for one managed window.
type windowItem struct {
	pos  int
	info ipc.WindowInfo
}

func (i windowItem) Title() string {
	prefix := "  "
	if i.info.Focused {
		prefix = "* "
	}
	slot := fmt.Sprintf("%d", i.pos)
	if i.pos == 0 {
		slot = "M"
	}
	class := i.info.Class
	if class == "" {
		class = "?"
	}
	return fmt.Sprintf("%s%s  %-14s %s", prefix, slot, class, i.info.Name)
}

func (i windowItem) Description() string { return fmt.Sprintf("0x%x", i.info.ID) }
func (i windowItem) FilterValue() string { return i.info.Class + " " + i.info.Name }

// WindowsTab lists the managed windows in stack order and drives focus
// and swap commands.
type WindowsTab struct {
	list   list.Model
	daemon Daemon

	workspace  string
	windows    []ipc.WindowInfo
	err        error
	statusText string

	width  int
	height int
	ready  bool
}

// NewWindowsTab creates a new WindowsTab sub-model.
func NewWindowsTab(daemon Daemon) WindowsTab {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Windows"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return WindowsTab{list: l, daemon: daemon}
}

func buildWindowItems(windows []ipc.WindowInfo) []list.Item {
	items := make([]list.Item, len(windows))
	for i, w := range windows {
		items[i] = windowItem{pos: i, info: w}
	}
	return items
}

// focusedIndex returns the stack position of the focused window, or -1.
func focusedIndex(windows []ipc.WindowInfo) int {
	for i, w := range windows {
		if w.Focused {
			return i
		}
	}
	return -1
}

func (wt *WindowsTab) refresh() {
	data, err := wt.daemon.GetWindows()
	if err != nil {
		wt.err = err
		wt.windows = nil
		wt.list.SetItems(nil)
		return
	}
	wt.err = nil
	wt.workspace = data.Workspace
	wt.windows = data.Windows
	wt.list.SetItems(buildWindowItems(data.Windows))
	if i := focusedIndex(data.Windows); i >= 0 {
		wt.list.Select(i)
	}
}

// Update implements tea.Model.
func (wt WindowsTab) Update(msg tea.Msg) (WindowsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		wt.width = msg.Width
		wt.height = msg.Height
		wt.list.SetSize(wt.width, max(wt.height-2, 1))
		wt.ready = true
		return wt, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "n":
			return wt.run("focus down", func() error { return wt.daemon.Focus(ipc.DirectionDown) })
		case "p":
			return wt.run("focus up", func() error { return wt.daemon.Focus(ipc.DirectionUp) })
		case "J":
			return wt.run("swap down", func() error { return wt.daemon.Swap(ipc.DirectionDown) })
		case "K":
			return wt.run("swap up", func() error { return wt.daemon.Swap(ipc.DirectionUp) })
		case "enter", "m":
			return wt.run("swap master", func() error { return wt.daemon.Swap(ipc.DirectionMaster) })
		case "r":
			wt.refresh()
			return wt, nil
		}
	}

	var cmd tea.Cmd
	wt.list, cmd = wt.list.Update(msg)
	return wt, cmd
}

func (wt WindowsTab) run(label string, fn func() error) (WindowsTab, tea.Cmd) {
	if err := fn(); err != nil {
		wt.statusText = fmt.Sprintf("error: %v", err)
	} else {
		wt.statusText = label
	}
	wt.refresh()
	return wt, clearStatusLater()
}

// View implements tea.Model.
func (wt WindowsTab) View() string {
	if !wt.ready || wt.width == 0 || wt.height == 0 {
		return ""
	}

	var body string
	switch {
	case wt.err != nil:
		body = lipgloss.NewStyle().
			Width(wt.width).
			Height(wt.height-2).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("daemon not reachable\n\n" + wt.err.Error())
	case len(wt.windows) == 0:
		body = lipgloss.NewStyle().
			Width(wt.width).
			Height(wt.height-2).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render(fmt.Sprintf("workspace %s has no windows", wt.workspace))
	default:
		body = wt.list.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, wt.renderTabStatus())
}

func (wt WindowsTab) renderTabStatus() string {
	left := ""
	if wt.statusText != "" {
		left = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Render(wt.statusText)
	}

	right := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render("n/p:focus  J/K:swap  enter/m:master  r:refresh")

	gap := max(wt.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)

	return lipgloss.NewStyle().
		Width(wt.width).
		Padding(0, 1).
		Render(left + strings.Repeat(" ", gap) + right)
}
