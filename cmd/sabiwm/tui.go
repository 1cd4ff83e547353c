package main

import (
	"fmt"
	"os"

	"github.com/1broseidon/sabiwm/internal/tui"
)

func runTUI(args []string) int {
	fs := newFlagSet("tui",
		"Usage: sabiwm tui [--path PATH]",
		"",
		"Interactive dashboard for the running daemon. Settings can be edited",
		"and saved without a daemon; window and layout commands need one.",
		"",
		"Keybindings:",
		"  tab, 1-3    Switch tabs (Windows, Layouts, Settings)",
		"  n/p         Focus next/previous window",
		"  J/K         Swap focused window down/up",
		"  enter, m    Move focused window to the master slot",
		"  enter, a    Apply selected layout (Layouts tab)",
		"  c           Cycle layout",
		"  d/D         Set selected layout as default (D also applies it)",
		"  e           Edit settings (Settings tab)",
		"  ctrl+s      Save config and reload the daemon",
		"  ctrl+e      Edit config in $EDITOR",
		"  q, ctrl+c   Quit",
	)
	path := fs.String("path", "", "Config file path (default: $XDG_CONFIG_HOME/sabiwm/config.yaml)")
	if code := parse(fs, args, 0); code >= 0 {
		return code
	}

	if err := tui.New(*path).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
