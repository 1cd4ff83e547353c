package daemon

import (
	"fmt"

	"github.com/1broseidon/sabiwm/internal/config"
	"github.com/1broseidon/sabiwm/internal/core"
	"github.com/1broseidon/sabiwm/internal/platform"
)

// CommandKind names an operation requested by hotkeys, IPC or the config
// watcher. Commands are applied by the reconciler loop only.
type CommandKind int

const (
	CommandFocusUp CommandKind = iota + 1
	CommandFocusDown
	CommandSwapUp
	CommandSwapDown
	CommandSwapMaster
	CommandCycleLayout
	CommandSetLayout
	CommandReload
	commandDescribe
)

var commandNames = map[CommandKind]string{
	CommandFocusUp:     "focus-up",
	CommandFocusDown:   "focus-down",
	CommandSwapUp:      "swap-up",
	CommandSwapDown:    "swap-down",
	CommandSwapMaster:  "swap-master",
	CommandCycleLayout: "cycle-layout",
	CommandSetLayout:   "set-layout",
	CommandReload:      "reload",
	commandDescribe:    "describe",
}

func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(k))
}

// Command is a request to change the managed state.
type Command struct {
	Kind CommandKind
	// Layout is the target of CommandSetLayout.
	Layout string
	// Config is the replacement configuration for CommandReload.
	Config *config.Config
}

func FocusUp() Command    { return Command{Kind: CommandFocusUp} }
func FocusDown() Command  { return Command{Kind: CommandFocusDown} }
func SwapUp() Command     { return Command{Kind: CommandSwapUp} }
func SwapDown() Command   { return Command{Kind: CommandSwapDown} }
func SwapMaster() Command { return Command{Kind: CommandSwapMaster} }
func CycleLayout() Command {
	return Command{Kind: CommandCycleLayout}
}

func SetLayout(name string) Command {
	return Command{Kind: CommandSetLayout, Layout: name}
}

func Reload(cfg *config.Config) Command {
	return Command{Kind: CommandReload, Config: cfg}
}

// stackOp returns the focus-stack operation behind a navigation command.
func stackOp(kind CommandKind) (func(core.Stack[platform.WindowID]) core.Stack[platform.WindowID], bool) {
	switch kind {
	case CommandFocusUp:
		return core.Stack[platform.WindowID].FocusUp, true
	case CommandFocusDown:
		return core.Stack[platform.WindowID].FocusDown, true
	case CommandSwapUp:
		return core.Stack[platform.WindowID].SwapUp, true
	case CommandSwapDown:
		return core.Stack[platform.WindowID].SwapDown, true
	case CommandSwapMaster:
		return core.Stack[platform.WindowID].SwapMaster, true
	}
	return nil, false
}

// UnknownLayoutError is returned when a layout name is not configured.
type UnknownLayoutError struct {
	Name string
}

func (e *UnknownLayoutError) Error() string {
	return fmt.Sprintf("layout %q not found", e.Name)
}
