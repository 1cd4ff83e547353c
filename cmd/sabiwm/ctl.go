package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/1broseidon/sabiwm/internal/ipc"
)

// newFlagSet builds a subcommand flag set whose usage prints the given
// lines followed by the flag defaults.
func newFlagSet(name string, usage ...string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		for _, line := range usage {
			fmt.Fprintln(os.Stderr, line)
		}
		hasFlags := false
		fs.VisitAll(func(*flag.Flag) { hasFlags = true })
		if hasFlags {
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
	}
	return fs
}

// parse returns -1 when parsing succeeded and the command should run,
// otherwise the exit code.
func parse(fs *flag.FlagSet, args []string, nargs int) int {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != nargs {
		if nargs == 0 {
			fmt.Fprintf(os.Stderr, "%s takes no arguments\n", fs.Name())
		} else {
			fmt.Fprintf(os.Stderr, "%s requires %d argument(s)\n", fs.Name(), nargs)
		}
		fs.Usage()
		return 2
	}
	return -1
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, err)
	return 1
}

func runStatus(args []string) int {
	fs := newFlagSet("status",
		"Usage: sabiwm status [--json]",
		"",
		"Show daemon status via IPC.",
	)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if code := parse(fs, args, 0); code >= 0 {
		return code
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		return fail(err)
	}
	if *jsonOut {
		return printJSON(os.Stdout, status)
	}
	writeStatus(os.Stdout, status)
	return 0
}

func writeStatus(w io.Writer, status *ipc.StatusData) {
	focused := "-"
	if status.FocusedWindow != 0 {
		focused = fmt.Sprintf("0x%x", status.FocusedWindow)
	}
	printFields(w, [][2]string{
		{"daemon_running", strconv.FormatBool(status.DaemonRunning)},
		{"version", status.Version},
		{"workspace", fmt.Sprintf("%s (%d)", status.Workspace, status.WorkspaceID)},
		{"active_layout", status.ActiveLayout},
		{"window_count", strconv.Itoa(status.WindowCount)},
		{"focused_window", focused},
		{"screen", formatScreen(status.Screen)},
		{"uptime", (time.Duration(status.UptimeSeconds) * time.Second).String()},
	})
}

func formatScreen(s ipc.ScreenInfo) string {
	return fmt.Sprintf("%dx%d+%d+%d", s.Width, s.Height, s.X, s.Y)
}

func runWindows(args []string) int {
	fs := newFlagSet("windows",
		"Usage: sabiwm windows [--json]",
		"",
		"List managed windows in stack order. The first row is the master slot.",
	)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if code := parse(fs, args, 0); code >= 0 {
		return code
	}

	data, err := ipc.NewClient().GetWindows()
	if err != nil {
		return fail(err)
	}
	if *jsonOut {
		return printJSON(os.Stdout, data)
	}
	writeWindows(os.Stdout, stdoutIsTerminal(), data)
	return 0
}

func writeWindows(w io.Writer, tty bool, data *ipc.WindowsData) {
	if len(data.Windows) == 0 {
		fmt.Fprintf(w, "workspace %s has no windows\n", data.Workspace)
		return
	}
	rows := make([][]string, len(data.Windows))
	highlight := make(map[int]bool)
	for i, win := range data.Windows {
		mark := ""
		if win.Focused {
			mark = "*"
			highlight[i] = true
		}
		rows[i] = []string{strconv.Itoa(i), fmt.Sprintf("0x%x", win.ID), win.Class, win.Name, mark}
	}
	printTable(w, tty, []string{"#", "ID", "CLASS", "NAME", "FOCUS"}, rows, highlight)
}

func runScreens(args []string) int {
	fs := newFlagSet("screens",
		"Usage: sabiwm screens [--json]",
		"",
		"List the usable area of every screen, with panels and docks removed.",
	)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if code := parse(fs, args, 0); code >= 0 {
		return code
	}

	data, err := ipc.NewClient().GetScreens()
	if err != nil {
		return fail(err)
	}
	if *jsonOut {
		return printJSON(os.Stdout, data)
	}
	rows := make([][]string, len(data.Screens))
	for i, s := range data.Screens {
		rows[i] = []string{strconv.Itoa(s.ID), strconv.Itoa(int(s.X)), strconv.Itoa(int(s.Y)), strconv.Itoa(int(s.Width)), strconv.Itoa(int(s.Height))}
	}
	printTable(os.Stdout, stdoutIsTerminal(), []string{"SCREEN", "X", "Y", "WIDTH", "HEIGHT"}, rows, nil)
	return 0
}

func runFocus(args []string) int {
	fs := newFlagSet("focus",
		"Usage: sabiwm focus up|down",
		"",
		"Move focus to the previous or next window. Focus wraps around.",
	)
	if code := parse(fs, args, 1); code >= 0 {
		return code
	}
	dir := ipc.Direction(fs.Arg(0))
	if dir != ipc.DirectionUp && dir != ipc.DirectionDown {
		fmt.Fprintf(os.Stderr, "invalid direction %q\n", fs.Arg(0))
		fs.Usage()
		return 2
	}
	if err := ipc.NewClient().Focus(dir); err != nil {
		return fail(err)
	}
	return 0
}

func runSwap(args []string) int {
	fs := newFlagSet("swap",
		"Usage: sabiwm swap up|down|master",
		"",
		"Move the focused window one position, or into the master slot.",
	)
	if code := parse(fs, args, 1); code >= 0 {
		return code
	}
	dir := ipc.Direction(fs.Arg(0))
	switch dir {
	case ipc.DirectionUp, ipc.DirectionDown, ipc.DirectionMaster:
	default:
		fmt.Fprintf(os.Stderr, "invalid direction %q\n", fs.Arg(0))
		fs.Usage()
		return 2
	}
	if err := ipc.NewClient().Swap(dir); err != nil {
		return fail(err)
	}
	return 0
}

func runReload(args []string) int {
	fs := newFlagSet("reload",
		"Usage: sabiwm reload",
		"",
		"Ask the daemon to re-read its configuration file.",
	)
	if code := parse(fs, args, 0); code >= 0 {
		return code
	}
	if err := ipc.NewClient().Reload(); err != nil {
		return fail(err)
	}
	fmt.Println("config reloaded")
	return 0
}

func printLayoutUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  sabiwm layout list [--json]")
	fmt.Fprintln(w, "  sabiwm layout apply <layout>")
	fmt.Fprintln(w, "  sabiwm layout cycle")
	fmt.Fprintln(w, "  sabiwm layout default [--apply] <layout>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'sabiwm layout <command> --help' for command-specific options.")
}

func runLayout(args []string) int {
	if len(args) == 0 {
		printLayoutUsage(os.Stderr)
		return 2
	}
	if isHelp(args) {
		printLayoutUsage(os.Stdout)
		return 0
	}

	client := ipc.NewClient()

	switch args[0] {
	case "list":
		fs := newFlagSet("list",
			"Usage: sabiwm layout list [--json]",
			"",
			"List configured layouts with the default and active selection.",
		)
		jsonOut := fs.Bool("json", false, "Output as JSON")
		if code := parse(fs, args[1:], 0); code >= 0 {
			return code
		}
		data, err := client.ListLayouts()
		if err != nil {
			return fail(err)
		}
		if *jsonOut {
			return printJSON(os.Stdout, data)
		}
		writeLayouts(os.Stdout, stdoutIsTerminal(), data)
		return 0

	case "apply":
		fs := newFlagSet("apply",
			"Usage: sabiwm layout apply <layout>",
			"",
			"Switch the active layout and rearrange the managed windows.",
		)
		if code := parse(fs, args[1:], 1); code >= 0 {
			return code
		}
		name, err := resolveLayout(client, fs.Arg(0))
		if err != nil {
			return fail(err)
		}
		if err := client.ApplyLayout(name); err != nil {
			return fail(err)
		}
		return 0

	case "cycle":
		fs := newFlagSet("cycle",
			"Usage: sabiwm layout cycle",
			"",
			"Switch to the next configured layout.",
		)
		if code := parse(fs, args[1:], 0); code >= 0 {
			return code
		}
		if err := client.CycleLayout(); err != nil {
			return fail(err)
		}
		return 0

	case "default":
		fs := newFlagSet("default",
			"Usage: sabiwm layout default [--apply] <layout>",
			"",
			"Set default_layout in the config file.",
		)
		applyNow := fs.Bool("apply", false, "Also switch the active layout now")
		if code := parse(fs, args[1:], 1); code >= 0 {
			return code
		}
		name, err := resolveLayout(client, fs.Arg(0))
		if err != nil {
			return fail(err)
		}
		if err := client.SetDefaultLayout(name, *applyNow); err != nil {
			return fail(err)
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown layout command: %s\n\n", args[0])
		printLayoutUsage(os.Stderr)
		return 2
	}
}

// resolveLayout expands an abbreviated layout name against the daemon's
// layout list. The name is passed through unchanged when the list cannot
// be fetched so the daemon reports the error.
func resolveLayout(client *ipc.Client, name string) (string, error) {
	data, err := client.ListLayouts()
	if err != nil {
		return name, nil
	}
	return matchLayout(name, data.Layouts)
}

func matchLayout(name string, names []string) (string, error) {
	for _, n := range names {
		if n == name {
			return n, nil
		}
	}
	matches := fuzzy.Find(name, names)
	switch {
	case len(matches) == 0:
		return "", fmt.Errorf("unknown layout %q", name)
	case len(matches) > 1 && matches[0].Score == matches[1].Score:
		candidates := make([]string, 0, len(matches))
		for _, m := range matches {
			if m.Score == matches[0].Score {
				candidates = append(candidates, m.Str)
			}
		}
		return "", fmt.Errorf("layout %q is ambiguous: %s", name, strings.Join(candidates, ", "))
	}
	return matches[0].Str, nil
}

func writeLayouts(w io.Writer, tty bool, data *ipc.LayoutsData) {
	rows := make([][]string, len(data.Layouts))
	highlight := make(map[int]bool)
	for i, name := range data.Layouts {
		var flags string
		if name == data.ActiveLayout {
			flags = "active"
			highlight[i] = true
		}
		if name == data.DefaultLayout {
			if flags != "" {
				flags += ","
			}
			flags += "default"
		}
		rows[i] = []string{name, flags}
	}
	printTable(w, tty, []string{"LAYOUT", ""}, rows, highlight)
}
