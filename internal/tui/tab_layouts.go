package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/sabiwm/internal/config"
)

// layoutItem implements list.Item for the layout picker sidebar.
type layoutItem struct {
	name      string
	isActive  bool
	isDefault bool
}

func (i layoutItem) Title() string {
	prefix := "  "
	if i.isActive {
		prefix = "* "
	}
	suffix := ""
	if i.isDefault {
		suffix = " (default)"
	}
	return prefix + i.name + suffix
}

func (i layoutItem) Description() string { return "" }
func (i layoutItem) FilterValue() string { return i.name }

// LayoutsTab is the sub-model for the Layouts browser tab.
type LayoutsTab struct {
	list   list.Model
	daemon Daemon
	cfg    *config.Config

	names         []string
	activeLayout  string
	defaultLayout string
	connected     bool

	// tileCount is the window count previews are drawn for; zero follows
	// the number of managed windows.
	tileCount   int
	windowCount int

	statusText string

	width  int
	height int
	ready  bool
}

// NewLayoutsTab creates a new LayoutsTab sub-model.
func NewLayoutsTab(daemon Daemon, cfg *config.Config) LayoutsTab {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Layouts"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	lt := LayoutsTab{
		list:   l,
		daemon: daemon,
		cfg:    cfg,
	}
	lt.names = cfg.LayoutNames()
	lt.defaultLayout = cfg.DefaultLayout
	lt.rebuildItems()
	return lt
}

func buildLayoutItems(names []string, activeLayout, defaultLayout string) []list.Item {
	items := make([]list.Item, 0, len(names))
	for _, name := range names {
		items = append(items, layoutItem{
			name:      name,
			isActive:  name == activeLayout,
			isDefault: name == defaultLayout,
		})
	}
	return items
}

// setConfig replaces the config used for previews and the offline list.
func (lt *LayoutsTab) setConfig(cfg *config.Config) {
	lt.cfg = cfg
	if !lt.connected {
		lt.names = cfg.LayoutNames()
		lt.defaultLayout = cfg.DefaultLayout
		lt.rebuildItems()
	}
}

// refresh reads the layout list from the daemon. Without a daemon the
// list falls back to the local config.
func (lt *LayoutsTab) refresh() {
	data, err := lt.daemon.ListLayouts()
	if err != nil {
		lt.connected = false
		lt.activeLayout = ""
		lt.names = lt.cfg.LayoutNames()
		lt.defaultLayout = lt.cfg.DefaultLayout
		lt.windowCount = 0
		lt.rebuildItems()
		return
	}
	lt.connected = true
	lt.names = data.Layouts
	lt.activeLayout = data.ActiveLayout
	lt.defaultLayout = data.DefaultLayout
	if status, err := lt.daemon.GetStatus(); err == nil {
		lt.windowCount = status.WindowCount
	}
	lt.rebuildItems()
}

func (lt *LayoutsTab) rebuildItems() {
	selected := lt.selectedName()
	lt.list.SetItems(buildLayoutItems(lt.names, lt.activeLayout, lt.defaultLayout))
	for i, name := range lt.names {
		if name == selected {
			lt.list.Select(i)
			return
		}
	}
}

// previewCount is the number of tiles previews are drawn with.
func (lt LayoutsTab) previewCount() int {
	if lt.tileCount > 0 {
		return lt.tileCount
	}
	return max(lt.windowCount, 1)
}

// Update implements tea.Model.
func (lt LayoutsTab) Update(msg tea.Msg) (LayoutsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		lt.width = msg.Width
		lt.height = msg.Height
		lt.list.SetSize(lt.sidebarWidth(), max(lt.height-2, 1))
		lt.ready = true
		return lt, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "a":
			name := lt.selectedName()
			return lt.run("applied: "+name, func() error { return lt.daemon.ApplyLayout(name) })
		case "c":
			return lt.run("cycled layout", lt.daemon.CycleLayout)
		case "d":
			name := lt.selectedName()
			return lt.run("default set: "+name, func() error { return lt.daemon.SetDefaultLayout(name, false) })
		case "D":
			name := lt.selectedName()
			return lt.run("default set and applied: "+name, func() error { return lt.daemon.SetDefaultLayout(name, true) })
		case "+", "=":
			lt.tileCount = min(lt.previewCount()+1, 16)
			return lt, nil
		case "-":
			lt.tileCount = max(lt.previewCount()-1, 1)
			return lt, nil
		case "0":
			lt.tileCount = 0
			return lt, nil
		}
	}

	var cmd tea.Cmd
	lt.list, cmd = lt.list.Update(msg)
	return lt, cmd
}

func (lt LayoutsTab) run(label string, fn func() error) (LayoutsTab, tea.Cmd) {
	if lt.selectedName() == "" {
		return lt, nil
	}
	if !lt.connected {
		lt.statusText = "daemon not connected"
		return lt, clearStatusLater()
	}
	if err := fn(); err != nil {
		lt.statusText = fmt.Sprintf("error: %v", err)
	} else {
		lt.statusText = label
	}
	lt.refresh()
	return lt, clearStatusLater()
}

func (lt LayoutsTab) sidebarWidth() int {
	// Sidebar takes ~35% of width, min 20, max 40
	return min(max(lt.width*35/100, 20), 40)
}

func (lt LayoutsTab) selectedName() string {
	item, ok := lt.list.SelectedItem().(layoutItem)
	if !ok {
		return ""
	}
	return item.name
}

// View implements tea.Model.
func (lt LayoutsTab) View() string {
	if !lt.ready || lt.width == 0 || lt.height == 0 {
		return ""
	}

	sidebarWidth := lt.sidebarWidth()
	previewWidth := max(lt.width-sidebarWidth-3, 10) // 3 for separator + padding

	sidebar := lipgloss.NewStyle().
		Width(sidebarWidth).
		Height(lt.height - 2).
		Render(lt.list.View())

	preview := lt.renderPreview(previewWidth)

	sep := lipgloss.NewStyle().
		Foreground(lipgloss.Color("238")).
		Render(strings.Repeat("│\n", max(lt.height-2, 1)))

	columns := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " "+sep, preview)
	return lipgloss.JoinVertical(lipgloss.Left, columns, lt.renderTabStatus())
}

func (lt LayoutsTab) renderPreview(previewWidth int) string {
	name := lt.selectedName()
	if name == "" || lt.cfg == nil {
		return ""
	}

	layout, ok := lt.cfg.Layouts[name]
	if !ok {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render(" " + name + " is not in the local config file")
	}

	count := lt.previewCount()
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Render(fmt.Sprintf(" %s  [%s, %d windows]", name, layout.Mode, count))

	summary := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		Render(" " + summarizeLayout(&layout, count, lt.cfg.GapSize))

	previewHeight := max(lt.height-6, 5) // title + summary + status + padding
	asciiWidth := max(previewWidth-2, 5)
	lines := renderASCIIPreview(&layout, count, asciiWidth, previewHeight)

	previewBlock := lipgloss.NewStyle().
		Foreground(lipgloss.Color("247")).
		Render(strings.Join(lines, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left, title, summary, "", previewBlock)
}

func (lt LayoutsTab) renderTabStatus() string {
	left := ""
	if lt.statusText != "" {
		left = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Render(lt.statusText)
	}

	right := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render("enter/a:apply  c:cycle  d/D:default  +/-:preview windows  0:auto")

	gap := max(lt.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)

	return lipgloss.NewStyle().
		Width(lt.width).
		Padding(0, 1).
		Render(left + strings.Repeat(" ", gap) + right)
}
