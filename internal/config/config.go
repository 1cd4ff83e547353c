package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// LayoutMode defines how managed windows are arranged.
type LayoutMode string

const (
	LayoutModeFloat       LayoutMode = "float"        // Only new windows are sized, nothing is moved.
	LayoutModeAuto        LayoutMode = "auto"         // Dynamic grid based on count.
	LayoutModeFixed       LayoutMode = "fixed"        // Specific rows × cols.
	LayoutModeVertical    LayoutMode = "vertical"     // Single column stack.
	LayoutModeHorizontal  LayoutMode = "horizontal"   // Single row side-by-side.
	LayoutModeMasterStack LayoutMode = "master-stack" // Master pane left, stack grid right.
)

// RegionType defines tile region presets.
type RegionType string

const (
	RegionFull       RegionType = "full"
	RegionLeftHalf   RegionType = "left-half"
	RegionRightHalf  RegionType = "right-half"
	RegionTopHalf    RegionType = "top-half"
	RegionBottomHalf RegionType = "bottom-half"
	RegionCustom     RegionType = "custom"
)

// TileRegion defines which part of a screen windows are tiled into.
type TileRegion struct {
	Type          RegionType `yaml:"type"`
	XPercent      int        `yaml:"x_percent"`      // 0-100
	YPercent      int        `yaml:"y_percent"`      // 0-100
	WidthPercent  int        `yaml:"width_percent"`  // 0-100
	HeightPercent int        `yaml:"height_percent"` // 0-100
}

// FixedGrid defines specific grid dimensions.
type FixedGrid struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

// MasterStack defines the master-stack layout parameters.
type MasterStack struct {
	MasterWidthPercent int `yaml:"master_width_percent"` // Width of master pane as percentage (10-90)
	MaxStackRows       int `yaml:"max_stack_rows"`       // Maximum rows in the stack grid (>= 1)
	MaxStackCols       int `yaml:"max_stack_cols"`       // Maximum columns in the stack grid (>= 1)
}

// Layout defines a tiling configuration.
type Layout struct {
	Mode            LayoutMode  `yaml:"mode"`
	TileRegion      TileRegion  `yaml:"tile_region"`
	FixedGrid       FixedGrid   `yaml:"fixed_grid,omitempty"`
	MasterStack     MasterStack `yaml:"master_stack,omitempty"`
	MaxWindowWidth  int         `yaml:"max_window_width"`  // 0 = unlimited
	MaxWindowHeight int         `yaml:"max_window_height"` // 0 = unlimited
	FlexibleLastRow bool        `yaml:"flexible_last_row"` // Last row windows expand to fill width (auto mode only)
}

// Workspace names the single workspace the manager tracks.
type Workspace struct {
	ID  uint32 `yaml:"id"`
	Tag string `yaml:"tag"`
}

// Placement is the size given to a newly managed window in float mode.
type Placement struct {
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
}

// Hotkeys maps key sequences (xgbutil keybind syntax) to commands. Empty
// entries are not bound.
type Hotkeys struct {
	FocusUp     string `yaml:"focus_up"`
	FocusDown   string `yaml:"focus_down"`
	SwapUp      string `yaml:"swap_up"`
	SwapDown    string `yaml:"swap_down"`
	SwapMaster  string `yaml:"swap_master"`
	CycleLayout string `yaml:"cycle_layout"`
}

// Logging configures the daemon log sink.
type Logging struct {
	// Level controls verbosity: debug, info, warn, error
	Level string `yaml:"level"`
	// Format is json or text.
	Format string `yaml:"format"`
	// File is the log file path. Empty means the XDG cache location,
	// "stderr" logs to standard error.
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10,
	// 0 means 100)
	MaxSizeMB int `yaml:"max_size_mb"`
	// MaxFiles is the number of rotated files to keep (default: 3, 0 keeps
	// all)
	MaxFiles int `yaml:"max_files"`
}

const (
	DefaultPlacementWidth    = 50
	DefaultPlacementHeight   = 50
	DefaultReconcileInterval = 10 // seconds
	LogFileStderr            = "stderr"
)

// Config holds the application configuration.
type Config struct {
	Workspace         Workspace         `yaml:"workspace"`
	Placement         Placement         `yaml:"placement"`
	GapSize           int               `yaml:"gap_size"`
	DefaultLayout     string            `yaml:"default_layout"`
	Layouts           map[string]Layout `yaml:"layouts"`
	Hotkeys           Hotkeys           `yaml:"hotkeys"`
	Logging           Logging           `yaml:"logging"`
	ReconcileInterval int               `yaml:"reconcile_interval"` // seconds, 0 disables drift checks
}

func DefaultConfig() *Config {
	return &Config{
		Workspace: Workspace{ID: 0, Tag: "Main"},
		Placement: Placement{
			Width:  DefaultPlacementWidth,
			Height: DefaultPlacementHeight,
		},
		GapSize:       8,
		DefaultLayout: DefaultBuiltinLayout,
		Layouts:       BuiltinLayouts(),
		Hotkeys: Hotkeys{
			FocusUp:     "Mod4-k",
			FocusDown:   "Mod4-j",
			SwapUp:      "Mod4-Shift-k",
			SwapDown:    "Mod4-Shift-j",
			SwapMaster:  "Mod4-Return",
			CycleLayout: "Mod4-space",
		},
		Logging: Logging{
			Level:     "info",
			Format:    "json",
			MaxSizeMB: 10,
			MaxFiles:  3,
		},
		ReconcileInterval: DefaultReconcileInterval,
	}
}

// ValidationError reports an invalid setting by its YAML path, with the
// file position when the value came from a file.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Clone returns a copy that can be modified without affecting c.
func (c *Config) Clone() *Config {
	out := *c
	out.Layouts = maps.Clone(c.Layouts)
	return &out
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments
// from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo validates the configuration and writes it to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	save := *c
	save.Layouts = layoutsForSave(c.Layouts)

	data, err := yaml.Marshal(&save)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func layoutsForSave(layouts map[string]Layout) map[string]Layout {
	builtin := BuiltinLayouts()
	out := make(map[string]Layout)
	for name, layout := range layouts {
		if base, ok := builtin[name]; ok && base == layout {
			continue
		}
		out[name] = layout
	}
	return out
}

// GetLayout retrieves a layout by name with validation.
func (c *Config) GetLayout(name string) (*Layout, error) {
	layout, ok := c.Layouts[name]
	if !ok {
		return nil, fmt.Errorf("layout %q not found", name)
	}

	if err := validateLayout(&layout); err != nil {
		return nil, fmt.Errorf("invalid layout %q: %w", name, err)
	}

	return &layout, nil
}

// GetDefaultLayout retrieves the default layout.
func (c *Config) GetDefaultLayout() (*Layout, error) {
	return c.GetLayout(c.DefaultLayout)
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Workspace.Tag) == "" {
		return &ValidationError{Path: "workspace.tag", Err: fmt.Errorf("workspace tag is required")}
	}
	if c.Placement.Width == 0 || c.Placement.Height == 0 {
		return &ValidationError{Path: "placement", Err: fmt.Errorf("placement width and height must be positive")}
	}
	if c.GapSize < 0 {
		return &ValidationError{Path: "gap_size", Err: fmt.Errorf("gap_size must be >= 0")}
	}
	if c.ReconcileInterval < 0 {
		return &ValidationError{Path: "reconcile_interval", Err: fmt.Errorf("reconcile_interval must be >= 0")}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return &ValidationError{Path: "logging.format", Err: fmt.Errorf("format must be one of: json, text")}
	}
	if c.Logging.MaxSizeMB < 0 {
		return &ValidationError{Path: "logging.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Logging.MaxFiles < 0 {
		return &ValidationError{Path: "logging.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}

	if len(c.Layouts) == 0 {
		return &ValidationError{Path: "layouts", Err: fmt.Errorf("layouts must not be empty")}
	}
	if c.DefaultLayout == "" {
		return &ValidationError{Path: "default_layout", Err: fmt.Errorf("default_layout is required")}
	}
	if _, ok := c.Layouts[c.DefaultLayout]; !ok {
		return &ValidationError{Path: "default_layout", Err: fmt.Errorf("default_layout %q not found in layouts", c.DefaultLayout)}
	}

	for name, layout := range c.Layouts {
		if err := validateLayout(&layout); err != nil {
			return &ValidationError{Path: "layouts." + name, Err: err}
		}
	}

	return nil
}

// validateLayout checks if a layout configuration is valid.
func validateLayout(layout *Layout) error {
	switch layout.Mode {
	case LayoutModeFloat, LayoutModeAuto, LayoutModeFixed, LayoutModeVertical, LayoutModeHorizontal, LayoutModeMasterStack:
	default:
		return fmt.Errorf("invalid mode %q", layout.Mode)
	}

	if layout.Mode == LayoutModeFixed {
		if layout.FixedGrid.Rows <= 0 || layout.FixedGrid.Cols <= 0 {
			return fmt.Errorf("fixed mode requires rows and cols to be positive")
		}
	}

	if layout.Mode == LayoutModeMasterStack {
		if layout.MasterStack.MasterWidthPercent < 10 || layout.MasterStack.MasterWidthPercent > 90 {
			return fmt.Errorf("master_stack.master_width_percent must be between 10 and 90")
		}
		if layout.MasterStack.MaxStackRows < 1 {
			return fmt.Errorf("master_stack.max_stack_rows must be >= 1")
		}
		if layout.MasterStack.MaxStackCols < 1 {
			return fmt.Errorf("master_stack.max_stack_cols must be >= 1")
		}
	}

	if layout.MaxWindowWidth < 0 || layout.MaxWindowHeight < 0 {
		return fmt.Errorf("max_window_width/height must be >= 0")
	}

	switch layout.TileRegion.Type {
	case RegionFull, RegionLeftHalf, RegionRightHalf, RegionTopHalf, RegionBottomHalf:
		// ok
	case RegionCustom:
		r := layout.TileRegion
		if r.XPercent < 0 || r.XPercent > 100 {
			return fmt.Errorf("x_percent must be between 0 and 100")
		}
		if r.YPercent < 0 || r.YPercent > 100 {
			return fmt.Errorf("y_percent must be between 0 and 100")
		}
		if r.WidthPercent <= 0 || r.WidthPercent > 100 {
			return fmt.Errorf("width_percent must be between 1 and 100")
		}
		if r.HeightPercent <= 0 || r.HeightPercent > 100 {
			return fmt.Errorf("height_percent must be between 1 and 100")
		}
		if r.XPercent+r.WidthPercent > 100 {
			return fmt.Errorf("x_percent + width_percent must be <= 100")
		}
		if r.YPercent+r.HeightPercent > 100 {
			return fmt.Errorf("y_percent + height_percent must be <= 100")
		}
	default:
		return fmt.Errorf("invalid region type %q", layout.TileRegion.Type)
	}

	return nil
}

// LayoutNames returns the configured layout names, default first and the
// rest sorted, which is the order layout cycling follows.
func (c *Config) LayoutNames() []string {
	names := make([]string, 0, len(c.Layouts))
	if _, ok := c.Layouts[c.DefaultLayout]; ok {
		names = append(names, c.DefaultLayout)
	}
	rest := make([]string, 0, len(c.Layouts))
	for name := range c.Layouts {
		if name != c.DefaultLayout {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(names, rest...)
}
