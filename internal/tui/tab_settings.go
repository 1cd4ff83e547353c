package tui

import (
	"errors"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/sabiwm/internal/config"
)

// SettingsTab shows the general settings and edits them with a form. Edits
// land in the shared working config and are written with ctrl+s.
type SettingsTab struct {
	cfg     *config.Config
	loadErr error
	formErr error

	width  int
	height int

	editing bool
	form    *huh.Form

	// Form-bound values (strings for huh, converted on submit)
	fTag               string
	fGapSize           string
	fPlacementWidth    string
	fPlacementHeight   string
	fDefaultLayout     string
	fReconcileInterval string
	fFocusUp           string
	fFocusDown         string
	fSwapUp            string
	fSwapDown          string
	fSwapMaster        string
	fCycleLayout       string
	fLogLevel          string
	fLogFormat         string
}

// NewSettingsTab creates a SettingsTab for cfg. loadErr is shown when the
// config file could not be loaded.
func NewSettingsTab(cfg *config.Config, loadErr error) SettingsTab {
	return SettingsTab{cfg: cfg, loadErr: loadErr}
}

func (s *SettingsTab) setConfig(cfg *config.Config, loadErr error) {
	s.cfg = cfg
	s.loadErr = loadErr
}

// Update implements tea.Model.
func (s SettingsTab) Update(msg tea.Msg) (SettingsTab, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		s.width = size.Width
		s.height = size.Height
		if !s.editing {
			return s, nil
		}
	}
	if s.editing {
		return s.updateEditing(msg)
	}
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "e" {
		s.startEditing()
		return s, s.form.Init()
	}
	return s, nil
}

func (s SettingsTab) updateEditing(msg tea.Msg) (SettingsTab, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		s.editing = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	switch s.form.State {
	case huh.StateCompleted:
		s.formErr = s.applyForm()
		s.editing = false
		s.form = nil
		return s, nil
	case huh.StateAborted:
		s.editing = false
		s.form = nil
		return s, nil
	}
	return s, cmd
}

func validateUint(s string) error {
	if _, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32); err != nil {
		return errors.New("must be a non-negative number")
	}
	return nil
}

func validatePositive(s string) error {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil || v == 0 {
		return errors.New("must be a positive number")
	}
	return nil
}

func (s *SettingsTab) loadFields() {
	cfg := s.cfg
	s.fTag = cfg.Workspace.Tag
	s.fGapSize = strconv.Itoa(cfg.GapSize)
	s.fPlacementWidth = strconv.FormatUint(uint64(cfg.Placement.Width), 10)
	s.fPlacementHeight = strconv.FormatUint(uint64(cfg.Placement.Height), 10)
	s.fDefaultLayout = cfg.DefaultLayout
	s.fReconcileInterval = strconv.Itoa(cfg.ReconcileInterval)
	s.fFocusUp = cfg.Hotkeys.FocusUp
	s.fFocusDown = cfg.Hotkeys.FocusDown
	s.fSwapUp = cfg.Hotkeys.SwapUp
	s.fSwapDown = cfg.Hotkeys.SwapDown
	s.fSwapMaster = cfg.Hotkeys.SwapMaster
	s.fCycleLayout = cfg.Hotkeys.CycleLayout
	s.fLogLevel = cfg.Logging.Level
	s.fLogFormat = cfg.Logging.Format
}

func (s *SettingsTab) startEditing() {
	s.loadFields()
	s.formErr = nil

	layoutOpts := make([]huh.Option[string], 0, len(s.cfg.Layouts))
	for _, name := range s.cfg.LayoutNames() {
		layoutOpts = append(layoutOpts, huh.NewOption(name, name))
	}

	hotkey := func(title string, v *string) *huh.Input {
		return huh.NewInput().Title(title).Value(v)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("tag").
				Title("Workspace Tag").
				Description("Name of the managed workspace").
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return errors.New("tag is required")
					}
					return nil
				}).
				Value(&s.fTag),
			huh.NewSelect[string]().
				Key("default_layout").
				Title("Default Layout").
				Description("Layout used on startup").
				Options(layoutOpts...).
				Value(&s.fDefaultLayout),
			huh.NewInput().
				Key("gap_size").
				Title("Gap Size").
				Description("Pixels between tiled windows").
				Validate(validateUint).
				Value(&s.fGapSize),
			huh.NewInput().
				Key("placement_width").
				Title("New Window Width").
				Validate(validatePositive).
				Value(&s.fPlacementWidth),
			huh.NewInput().
				Key("placement_height").
				Title("New Window Height").
				Validate(validatePositive).
				Value(&s.fPlacementHeight),
			huh.NewInput().
				Key("reconcile_interval").
				Title("Reconcile Interval").
				Description("Seconds between drift checks, 0 disables").
				Validate(validateUint).
				Value(&s.fReconcileInterval),
		),
		huh.NewGroup(
			hotkey("Focus Up", &s.fFocusUp),
			hotkey("Focus Down", &s.fFocusDown),
			hotkey("Swap Up", &s.fSwapUp),
			hotkey("Swap Down", &s.fSwapDown),
			hotkey("Swap Master", &s.fSwapMaster),
			hotkey("Cycle Layout", &s.fCycleLayout),
		).Title("Hotkeys").Description("xgbutil key sequences such as Mod4-Shift-j; empty disables"),
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("log_level").
				Title("Log Level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&s.fLogLevel),
			huh.NewSelect[string]().
				Key("log_format").
				Title("Log Format").
				Options(huh.NewOptions("json", "text")...).
				Value(&s.fLogFormat),
		),
	).WithWidth(max(s.width-4, 40)).WithShowHelp(true).WithShowErrors(true)

	s.editing = true
}

// applyForm writes the form values into the working config. Nothing
// changes when the result does not validate.
func (s *SettingsTab) applyForm() error {
	next := s.cfg.Clone()

	next.Workspace.Tag = strings.TrimSpace(s.fTag)
	if v, err := strconv.Atoi(strings.TrimSpace(s.fGapSize)); err == nil {
		next.GapSize = v
	}
	if v, err := strconv.ParseUint(strings.TrimSpace(s.fPlacementWidth), 10, 32); err == nil {
		next.Placement.Width = uint32(v)
	}
	if v, err := strconv.ParseUint(strings.TrimSpace(s.fPlacementHeight), 10, 32); err == nil {
		next.Placement.Height = uint32(v)
	}
	if s.fDefaultLayout != "" {
		next.DefaultLayout = s.fDefaultLayout
	}
	if v, err := strconv.Atoi(strings.TrimSpace(s.fReconcileInterval)); err == nil {
		next.ReconcileInterval = v
	}
	next.Hotkeys = config.Hotkeys{
		FocusUp:     strings.TrimSpace(s.fFocusUp),
		FocusDown:   strings.TrimSpace(s.fFocusDown),
		SwapUp:      strings.TrimSpace(s.fSwapUp),
		SwapDown:    strings.TrimSpace(s.fSwapDown),
		SwapMaster:  strings.TrimSpace(s.fSwapMaster),
		CycleLayout: strings.TrimSpace(s.fCycleLayout),
	}
	next.Logging.Level = s.fLogLevel
	next.Logging.Format = s.fLogFormat

	if err := next.Validate(); err != nil {
		return err
	}
	*s.cfg = *next
	return nil
}

// View implements tea.Model.
func (s SettingsTab) View() string {
	if s.editing && s.form != nil {
		return s.viewEditing()
	}
	return s.viewDisplay()
}

func (s SettingsTab) viewDisplay() string {
	cfg := s.cfg

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		Width(22).
		Align(lipgloss.Right).
		PaddingRight(2)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Bold(true)

	dimStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	errStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(displayOrDefault(value, "(none)"))
	}

	lines := []string{""}
	if s.loadErr != nil {
		lines = append(lines, errStyle.Render("  config file invalid, showing defaults: "+s.loadErr.Error()), "")
	}
	if s.formErr != nil {
		lines = append(lines, errStyle.Render("  edit rejected: "+s.formErr.Error()), "")
	}

	lines = append(lines,
		row("Workspace", cfg.Workspace.Tag+" ("+strconv.FormatUint(uint64(cfg.Workspace.ID), 10)+")"),
		row("Default Layout", cfg.DefaultLayout),
		row("Gap Size", strconv.Itoa(cfg.GapSize)),
		row("New Window Size", strconv.FormatUint(uint64(cfg.Placement.Width), 10)+"×"+strconv.FormatUint(uint64(cfg.Placement.Height), 10)),
		row("Reconcile Interval", strconv.Itoa(cfg.ReconcileInterval)+"s"),
		"",
		row("Focus Up / Down", cfg.Hotkeys.FocusUp+" / "+cfg.Hotkeys.FocusDown),
		row("Swap Up / Down", cfg.Hotkeys.SwapUp+" / "+cfg.Hotkeys.SwapDown),
		row("Swap Master", cfg.Hotkeys.SwapMaster),
		row("Cycle Layout", cfg.Hotkeys.CycleLayout),
		"",
		row("Log Level", cfg.Logging.Level),
		row("Log Format", cfg.Logging.Format),
		row("Log File", displayOrDefault(cfg.Logging.File, "(xdg cache)")),
		"",
		dimStyle.Render("  Press 'e' to edit settings, ctrl+s to save"),
	)

	return lipgloss.NewStyle().
		Width(s.width).
		Height(s.height).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func (s SettingsTab) viewEditing() string {
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Render("Editing Settings") +
		lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render("  (esc to cancel)")

	return lipgloss.NewStyle().
		Width(s.width).
		Height(s.height).
		Padding(1, 2).
		Render(header + "\n\n" + s.form.View())
}

func displayOrDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
