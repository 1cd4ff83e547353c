package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/sabiwm/internal/config"
	"github.com/1broseidon/sabiwm/internal/daemon"
	"github.com/1broseidon/sabiwm/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Dispatcher receives the commands bound to hotkeys. It must not block the
// X event goroutine.
type Dispatcher interface {
	Post(cmd daemon.Command)
}

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Binding ties a key sequence to a command.
type Binding struct {
	Name    string
	Keys    string
	Command daemon.Command
}

// Bindings lists the configured hotkeys, skipping empty sequences.
func Bindings(keys config.Hotkeys) []Binding {
	all := []Binding{
		{"focus_up", keys.FocusUp, daemon.FocusUp()},
		{"focus_down", keys.FocusDown, daemon.FocusDown()},
		{"swap_up", keys.SwapUp, daemon.SwapUp()},
		{"swap_down", keys.SwapDown, daemon.SwapDown()},
		{"swap_master", keys.SwapMaster, daemon.SwapMaster()},
		{"cycle_layout", keys.CycleLayout, daemon.CycleLayout()},
	}
	out := all[:0]
	for _, b := range all {
		if b.Keys != "" {
			out = append(out, b)
		}
	}
	return out
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu         *xgbutil.XUtil
	root       xproto.Window
	dispatcher Dispatcher
	logger     *slog.Logger

	mu sync.Mutex
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler. The backend must expose its X11
// connection.
func NewHandler(backend platform.Backend, dispatcher Dispatcher, logger *slog.Logger) (*Handler, error) {
	accessor, ok := backend.(x11Accessor)
	if !ok {
		return nil, errors.New("hotkeys require an X11 backend")
	}
	if logger == nil {
		logger = slog.Default()
	}
	xu := accessor.XUtil()

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:         xu,
		root:       accessor.RootWindow(),
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

// Bind grabs every configured hotkey, releasing the grabs of a previous
// call first. A sequence that fails to bind does not stop the others.
func (h *Handler) Bind(keys config.Hotkeys) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	keybind.Detach(h.xu, h.root)

	var errs []error
	for _, b := range Bindings(keys) {
		b := b
		err := h.RegisterFunc(b.Keys, func() {
			h.logger.Debug("hotkey pressed", "keys", b.Keys, "command", b.Command.Kind.String())
			h.dispatcher.Post(b.Command)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to bind %s (%s): %w", b.Name, b.Keys, err))
			continue
		}
		h.logger.Debug("hotkey bound", "name", b.Name, "keys", b.Keys)
	}
	return errors.Join(errs...)
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	unique[0] = struct{}{}

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		unique[mask] = struct{}{}
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
