package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/sabiwm/internal/config"
	"github.com/1broseidon/sabiwm/internal/ipc"
)

// refreshInterval is how often daemon state is polled.
const refreshInterval = 2 * time.Second

// statusDuration is how long action feedback stays visible.
const statusDuration = 3 * time.Second

// refreshMsg asks every tab to re-read daemon state.
type refreshMsg struct{}

// clearStatusMsg clears action feedback after statusDuration.
type clearStatusMsg struct{}

// editorFinishedMsg is sent when the external editor exits.
type editorFinishedMsg struct{ err error }

func clearStatusLater() tea.Cmd {
	return tea.Tick(statusDuration, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

func refreshLater() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshMsg{} })
}

// model is the root bubbletea model for the TUI.
type model struct {
	configPath string
	daemon     Daemon

	// cfg is the working copy edited by the settings tab; original is the
	// last saved state used for the diff preview.
	cfg      *config.Config
	original *config.Config
	loadErr  error

	// status is nil while the daemon is unreachable.
	status *ipc.StatusData
	notice string

	activeTab   Tab
	windowsTab  WindowsTab
	layoutsTab  LayoutsTab
	settingsTab SettingsTab
	saveOverlay SaveOverlay

	width  int
	height int
}

func newModel(configPath string, daemon Daemon) model {
	m := model{
		configPath: configPath,
		daemon:     daemon,
		activeTab:  TabWindows,
	}
	m.loadConfig()

	m.windowsTab = NewWindowsTab(daemon)
	m.layoutsTab = NewLayoutsTab(daemon, m.cfg)
	m.settingsTab = NewSettingsTab(m.cfg, m.loadErr)
	m.refresh()
	return m
}

func (m *model) loadConfig() {
	res, err := config.LoadFromPath(m.configPath)
	if err != nil {
		m.loadErr = err
		if m.cfg == nil {
			m.cfg = config.DefaultConfig()
			m.original = m.cfg.Clone()
		}
		return
	}
	m.loadErr = nil
	m.cfg = res.Config
	m.original = res.Config.Clone()
}

func (m *model) refresh() {
	status, err := m.daemon.GetStatus()
	if err != nil {
		status = nil
	}
	m.status = status
	m.windowsTab.refresh()
	m.layoutsTab.refresh()
}

// setConfig hands a freshly loaded config to the tabs that show it.
func (m *model) setConfig() {
	m.layoutsTab.setConfig(m.cfg)
	m.settingsTab.setConfig(m.cfg, m.loadErr)
}

// contentHeight returns the height available for tab content.
func (m model) contentHeight() int {
	// status bar (1) + tab bar (2 with margin) + help bar (1)
	return max(m.height-4, 1)
}

func (m *model) resize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	sub := tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()}
	m.windowsTab, _ = m.windowsTab.Update(sub)
	m.layoutsTab, _ = m.layoutsTab.Update(sub)
	m.settingsTab, _ = m.settingsTab.Update(sub)
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return refreshLater()
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil

	case refreshMsg:
		m.refresh()
		return m, refreshLater()

	case clearStatusMsg:
		m.notice = ""
		m.windowsTab.statusText = ""
		m.layoutsTab.statusText = ""
		return m, nil

	case editorFinishedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("editor failed: %v", msg.err)
			return m, clearStatusLater()
		}
		m.loadConfig()
		m.setConfig()
		switch {
		case m.loadErr != nil:
			m.notice = "config invalid: " + m.loadErr.Error()
		case m.status != nil:
			if err := m.daemon.Reload(); err != nil {
				m.notice = "daemon reload failed: " + err.Error()
			} else {
				m.notice = "config reloaded"
			}
			m.refresh()
		default:
			m.notice = "config reloaded"
		}
		return m, clearStatusLater()
	}

	// Save overlay captures all input when active
	if m.saveOverlay.Active() {
		if km, ok := msg.(tea.KeyMsg); ok {
			if km.String() == "ctrl+c" {
				return m, tea.Quit
			}
			m.saveOverlay = m.saveOverlay.Update(km, m.cfg, m.configPath, m.daemon, m.status != nil)
			if m.saveOverlay.SaveSucceeded() {
				m.original = m.cfg.Clone()
			}
		}
		return m, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+s":
			m.saveOverlay.Show(m.original, m.cfg)
			return m, nil
		case "ctrl+e":
			return m, tea.ExecProcess(editorCommand(m.configPath), func(err error) tea.Msg {
				return editorFinishedMsg{err: err}
			})
		}
	}

	// The settings form consumes keys while editing
	if m.activeTab == TabSettings && m.settingsTab.editing {
		var cmd tea.Cmd
		m.settingsTab, cmd = m.settingsTab.Update(msg)
		if !m.settingsTab.editing {
			m.layoutsTab.setConfig(m.cfg)
		}
		return m, cmd
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case "1":
			m.activeTab = TabWindows
			return m, nil
		case "2":
			m.activeTab = TabLayouts
			return m, nil
		case "3":
			m.activeTab = TabSettings
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.activeTab {
	case TabWindows:
		m.windowsTab, cmd = m.windowsTab.Update(msg)
	case TabLayouts:
		m.layoutsTab, cmd = m.layoutsTab.Update(msg)
	case TabSettings:
		m.settingsTab, cmd = m.settingsTab.Update(msg)
	}
	if cmd != nil {
		// Tab actions change daemon state; pick it up immediately.
		if status, err := m.daemon.GetStatus(); err == nil {
			m.status = status
		}
	}
	return m, cmd
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.status, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.width)
	if m.notice != "" {
		helpBar = lipgloss.NewStyle().
			Width(m.width).
			Foreground(lipgloss.Color("214")).
			Padding(0, 1).
			Render(m.notice)
	}

	usedHeight := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(helpBar)
	contentHeight := max(m.height-usedHeight, 1)

	var content string
	if m.saveOverlay.Active() {
		content = m.saveOverlay.View(m.width, contentHeight)
	} else {
		switch m.activeTab {
		case TabWindows:
			content = m.windowsTab.View()
		case TabLayouts:
			content = m.layoutsTab.View()
		case TabSettings:
			content = m.settingsTab.View()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		helpBar,
	)
}
