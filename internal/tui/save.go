package tui

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/sabiwm/internal/config"
)

// diffContextLines is the number of unchanged lines shown around a change.
const diffContextLines = 2

var errNoChanges = errors.New("no changes to save")

type savePhase int

const (
	saveHidden savePhase = iota
	savePreview
	saveResult
)

type diffKind int

const (
	diffContext diffKind = iota
	diffRemoved
	diffAdded
	diffSection
)

type diffLine struct {
	kind diffKind
	text string
}

// sectionDiff is the change to one top-level key of the config file, such
// as workspace, layouts or hotkeys.
type sectionDiff struct {
	key     string
	added   int
	removed int
	lines   []diffLine
}

// SaveOverlay previews the pending config changes section by section and
// writes them on confirmation.
type SaveOverlay struct {
	phase    savePhase
	sections []sectionDiff
	lines    []diffLine
	err      error
	reloaded bool
	offset   int
}

// Active reports whether the overlay is visible.
func (s SaveOverlay) Active() bool {
	return s.phase != saveHidden
}

// Show diffs current against original and opens the preview.
func (s *SaveOverlay) Show(original, current *config.Config) {
	s.err = nil
	s.reloaded = false
	s.offset = 0

	sections, err := diffConfigs(original, current)
	switch {
	case err != nil:
		s.phase, s.err = saveResult, err
		return
	case len(sections) == 0:
		s.phase, s.err = saveResult, errNoChanges
		return
	}
	s.sections = sections
	s.lines = flattenSections(sections)
	s.phase = savePreview
}

// SaveSucceeded reports whether the last save completed without error.
func (s SaveOverlay) SaveSucceeded() bool {
	return s.phase == saveResult && s.err == nil
}

// changedKeys lists the sections the pending save touches.
func (s SaveOverlay) changedKeys() []string {
	keys := make([]string, len(s.sections))
	for i, sec := range s.sections {
		keys[i] = sec.key
	}
	return keys
}

// Update handles input while the overlay is active. Confirming writes cfg
// to path and asks a connected daemon to reload it.
func (s SaveOverlay) Update(msg tea.Msg, cfg *config.Config, path string, daemon Daemon, connected bool) SaveOverlay {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s
	}

	switch s.phase {
	case savePreview:
		switch km.String() {
		case "esc", "n":
			s.phase = saveHidden
		case "enter", "y":
			s.err = cfg.SaveTo(path)
			if s.err == nil && connected && daemon != nil {
				s.reloaded = daemon.Reload() == nil
			}
			s.phase = saveResult
		case "up", "k":
			s.offset = max(s.offset-1, 0)
		case "down", "j":
			s.offset = min(s.offset+1, max(len(s.lines)-1, 0))
		case "pgdown", " ":
			s.offset = min(s.offset+10, max(len(s.lines)-1, 0))
		case "pgup":
			s.offset = max(s.offset-10, 0)
		}
	case saveResult:
		s.phase = saveHidden
	}
	return s
}

// View renders the overlay centred in a width x height area.
func (s SaveOverlay) View(width, height int) string {
	var content string
	boxW := min(max(width-8, 30), 80)
	switch s.phase {
	case savePreview:
		content = s.previewContent(boxW-6, max(height-10, 3))
	case saveResult:
		boxW = min(boxW, 60)
		content = s.resultContent()
	default:
		return ""
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(boxW).
		Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func (s SaveOverlay) previewContent(innerW, rows int) string {
	styles := map[diffKind]lipgloss.Style{
		diffAdded:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		diffRemoved: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		diffContext: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		diffSection: lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true),
	}
	prefix := map[diffKind]string{diffAdded: "+ ", diffRemoved: "- ", diffContext: "  ", diffSection: ""}

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).
		Render(fmt.Sprintf("Save %s", strings.Join(s.changedKeys(), ", ")))

	off := min(s.offset, max(len(s.lines)-rows, 0))
	end := min(off+rows, len(s.lines))
	width := max(innerW-2, 8)

	out := make([]string, 0, end-off)
	for _, l := range s.lines[off:end] {
		text := prefix[l.kind] + l.text
		if len(text) > width {
			text = text[:width]
		}
		out = append(out, styles[l.kind].Render(text))
	}

	footer := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).
		Render("enter/y: save  esc/n: cancel  j/k: scroll")
	return title + "\n\n" + strings.Join(out, "\n") + "\n\n" + footer
}

func (s SaveOverlay) resultContent() string {
	var msg string
	if s.err != nil {
		msg = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).
			Render("Error: " + s.err.Error())
	} else {
		ok := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
		msg = ok.Bold(true).Render("Saved " + strings.Join(s.changedKeys(), ", "))
		if s.reloaded {
			msg += "\n" + ok.Render("Daemon reloaded")
		}
	}
	footer := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("press any key to dismiss")
	return msg + "\n\n" + footer
}

// diffConfigs compares the YAML rendering of two configs one top-level key
// at a time, in file order. Unchanged sections are left out.
func diffConfigs(original, current *config.Config) ([]sectionDiff, error) {
	if original == nil || current == nil {
		return nil, nil
	}
	before, _, err := configSections(original)
	if err != nil {
		return nil, err
	}
	after, order, err := configSections(current)
	if err != nil {
		return nil, err
	}
	for key := range before {
		if !slices.Contains(order, key) {
			order = append(order, key)
		}
	}

	var out []sectionDiff
	for _, key := range order {
		if slices.Equal(before[key], after[key]) {
			continue
		}
		out = append(out, diffSectionLines(key, before[key], after[key]))
	}
	return out, nil
}

// configSections renders each top-level key of cfg on its own.
func configSections(cfg *config.Config) (map[string][]string, []string, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to encode config: %w", err)
	}

	sections := make(map[string][]string)
	var order []string
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i].Value
		one := &yaml.Node{Kind: yaml.MappingNode, Content: doc.Content[i : i+2]}
		data, err := yaml.Marshal(one)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode %s: %w", key, err)
		}
		sections[key] = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		order = append(order, key)
	}
	return sections, order, nil
}

func diffSectionLines(key string, a, b []string) sectionDiff {
	d := sectionDiff{key: key}
	m := difflib.NewMatcher(a, b)
	for i, group := range m.GetGroupedOpCodes(diffContextLines) {
		if i > 0 {
			d.lines = append(d.lines, diffLine{kind: diffContext, text: "..."})
		}
		for _, op := range group {
			if op.Tag == 'e' {
				for _, l := range a[op.I1:op.I2] {
					d.lines = append(d.lines, diffLine{kind: diffContext, text: l})
				}
				continue
			}
			for _, l := range a[op.I1:op.I2] {
				d.lines = append(d.lines, diffLine{kind: diffRemoved, text: l})
				d.removed++
			}
			for _, l := range b[op.J1:op.J2] {
				d.lines = append(d.lines, diffLine{kind: diffAdded, text: l})
				d.added++
			}
		}
	}
	return d
}

// flattenSections lays the section diffs out for display, each under a
// header with its change counts.
func flattenSections(sections []sectionDiff) []diffLine {
	var lines []diffLine
	for i, sec := range sections {
		if i > 0 {
			lines = append(lines, diffLine{kind: diffContext})
		}
		header := fmt.Sprintf("%s  +%d -%d", sec.key, sec.added, sec.removed)
		lines = append(lines, diffLine{kind: diffSection, text: header})
		lines = append(lines, sec.lines...)
	}
	return lines
}
