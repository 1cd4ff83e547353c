package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_ValidAndHasBuiltinLayouts(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if _, ok := cfg.Layouts[DefaultBuiltinLayout]; !ok {
		t.Fatalf("expected builtin %q to exist in layouts", DefaultBuiltinLayout)
	}
	if cfg.Workspace.Tag != "Main" || cfg.Workspace.ID != 0 {
		t.Fatalf("unexpected default workspace %+v", cfg.Workspace)
	}
	if cfg.Placement.Width != 50 || cfg.Placement.Height != 50 {
		t.Fatalf("unexpected default placement %+v", cfg.Placement)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.File != "" {
		t.Fatalf("expected no file to be recorded, got %q", res.File)
	}
	if !reflect.DeepEqual(res.Config, DefaultConfig()) {
		t.Fatalf("expected defaults, got %+v", res.Config)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.DefaultLayout != DefaultBuiltinLayout {
		t.Fatalf("expected default_layout %q, got %q", DefaultBuiltinLayout, res.Config.DefaultLayout)
	}
}

func TestLoadFromPath_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"workspace:",
		"  tag: dev",
		"default_layout: master-stack",
		"hotkeys:",
		"  focus_up: Mod1-k",
		"layouts:",
		"  wide:",
		"    mode: horizontal",
		"    tile_region:",
		"      type: full",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Workspace.Tag != "dev" {
		t.Fatalf("expected tag dev, got %q", cfg.Workspace.Tag)
	}
	if cfg.Hotkeys.FocusUp != "Mod1-k" {
		t.Fatalf("expected focus_up override, got %q", cfg.Hotkeys.FocusUp)
	}
	// Untouched hotkeys keep their defaults.
	if cfg.Hotkeys.FocusDown != DefaultConfig().Hotkeys.FocusDown {
		t.Fatalf("focus_down lost its default: %q", cfg.Hotkeys.FocusDown)
	}
	if _, ok := cfg.Layouts["wide"]; !ok {
		t.Fatal("custom layout missing")
	}
	if _, ok := cfg.Layouts["grid"]; !ok {
		t.Fatal("builtin layouts dropped when a custom one was added")
	}
	if src, ok := res.Sources["workspace.tag"]; !ok || src.Line != 2 {
		t.Fatalf("expected source for workspace.tag on line 2, got %+v", src)
	}
}

func TestLoadFromPath_UnknownKeyIsError(t *testing.T) {
	path := writeConfig(t, "no_such_setting: 1\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadFromPath_ValidationErrorCarriesPosition(t *testing.T) {
	path := writeConfig(t, "gap_size: 4\nlogging:\n  level: loud\n")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "logging.level" {
		t.Fatalf("expected path logging.level, got %q", verr.Path)
	}
	if verr.Source.Line != 3 {
		t.Fatalf("expected line 3, got %d", verr.Source.Line)
	}
	if !strings.Contains(err.Error(), path+":3:") {
		t.Fatalf("error does not mention position: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"empty tag", func(c *Config) { c.Workspace.Tag = " " }, "workspace.tag"},
		{"zero placement", func(c *Config) { c.Placement.Width = 0 }, "placement"},
		{"negative gap", func(c *Config) { c.GapSize = -1 }, "gap_size"},
		{"negative interval", func(c *Config) { c.ReconcileInterval = -5 }, "reconcile_interval"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"unknown default layout", func(c *Config) { c.DefaultLayout = "spiral" }, "default_layout"},
		{"bad layout mode", func(c *Config) {
			c.Layouts["broken"] = Layout{Mode: "diagonal", TileRegion: TileRegion{Type: RegionFull}}
		}, "layouts.broken"},
		{"fixed without grid", func(c *Config) {
			c.Layouts["fixed"] = Layout{Mode: LayoutModeFixed, TileRegion: TileRegion{Type: RegionFull}}
		}, "layouts.fixed"},
		{"custom region overflow", func(c *Config) {
			c.Layouts["custom"] = Layout{
				Mode: LayoutModeAuto,
				TileRegion: TileRegion{
					Type: RegionCustom, XPercent: 60, WidthPercent: 50, HeightPercent: 100,
				},
			}
		}, "layouts.custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestLayoutNames_DefaultFirst(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultLayout = "grid"
	got := cfg.LayoutNames()
	want := []string{"grid", "columns", "float", "master-stack", "rows"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("LayoutNames() = %v, want %v", got, want)
	}
}

func TestSaveTo_RoundTripsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Workspace.Tag = "work"
	cfg.Layouts["wide"] = Layout{Mode: LayoutModeHorizontal, TileRegion: TileRegion{Type: RegionTopHalf}}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), "master-stack:") {
		t.Fatalf("unchanged builtin layouts should not be saved:\n%s", data)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Workspace.Tag != "work" {
		t.Fatalf("expected tag work, got %q", res.Config.Workspace.Tag)
	}
	if !reflect.DeepEqual(res.Config.Layouts, cfg.Layouts) {
		t.Fatalf("layouts differ after reload: %v", res.Config.Layouts)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "gap_size: 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config, err error) {
			if err == nil {
				changes <- cfg
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("gap_size: 12\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case cfg := <-changes:
		if cfg.GapSize != 12 {
			t.Fatalf("expected gap_size 12, got %d", cfg.GapSize)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch returned %v", err)
	}
}

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestClone_IsIndependent(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.DefaultLayout = "grid"
	delete(clone.Layouts, "rows")

	if cfg.DefaultLayout != DefaultBuiltinLayout {
		t.Fatalf("original default layout changed to %q", cfg.DefaultLayout)
	}
	if _, ok := cfg.Layouts["rows"]; !ok {
		t.Fatal("deleting from the clone changed the original layouts")
	}
}
