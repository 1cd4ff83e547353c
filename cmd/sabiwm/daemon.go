package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/1broseidon/sabiwm/internal/config"
	"github.com/1broseidon/sabiwm/internal/daemon"
	"github.com/1broseidon/sabiwm/internal/hotkeys"
	"github.com/1broseidon/sabiwm/internal/ipc"
	"github.com/1broseidon/sabiwm/internal/logging"
	"github.com/1broseidon/sabiwm/internal/platform"
	"github.com/1broseidon/sabiwm/internal/x11"
)

// app ties the reconciler to the configuration file. It is the controller
// behind the IPC server and the target of file-watch and SIGHUP reloads.
type app struct {
	*daemon.Reconciler

	path    string
	hotkeys *hotkeys.Handler
	logger  *slog.Logger

	reloadMu sync.Mutex
	mu       sync.RWMutex
	cfg      *config.Config
}

var _ ipc.Controller = (*app)(nil)

func (a *app) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// Reload re-reads the config file. An invalid file leaves everything as
// it was.
func (a *app) Reload(ctx context.Context) error {
	res, err := config.LoadFromPath(a.path)
	if err != nil {
		return err
	}
	return a.apply(ctx, res.Config)
}

func (a *app) apply(ctx context.Context, cfg *config.Config) error {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	if err := a.Dispatch(ctx, daemon.Reload(cfg)); err != nil {
		return err
	}
	if a.hotkeys != nil {
		if err := a.hotkeys.Bind(cfg.Hotkeys); err != nil {
			a.logger.Warn("some hotkeys could not be bound", "error", err)
		}
	}

	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()

	a.logger.Info("configuration reloaded", "path", a.path, "layout", a.Snapshot().Layout)
	return nil
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: sabiwm daemon [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Become the window manager of $DISPLAY and run in the foreground.")
		fmt.Fprintln(os.Stderr, "SIGHUP reloads the configuration; SIGINT and SIGTERM shut down.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "Config file path (default: $XDG_CONFIG_HOME/sabiwm/config.yaml)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	path, err := resolveConfigPath(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	cfg := res.Config

	logger, closer, err := logging.Setup(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return 1
	}
	defer closer.Close()
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		"path", path,
		"from_file", res.File != "",
		"layout", cfg.DefaultLayout,
		"gap", cfg.GapSize,
	)

	backend, err := platform.NewX11Backend("sabiwm", logger)
	if err != nil {
		if errors.Is(err, x11.ErrAnotherWM) {
			fmt.Fprintln(os.Stderr, "sabiwm: another window manager is already running")
		} else {
			fmt.Fprintf(os.Stderr, "sabiwm: %v\n", err)
		}
		logger.Error("failed to start", "error", err)
		return 1
	}
	defer backend.Disconnect()

	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Config: cfg,
		Logger: logger,
	}, backend)

	a := &app{
		Reconciler: reconciler,
		path:       path,
		logger:     logger,
		cfg:        cfg,
	}

	handler, err := hotkeys.NewHandler(backend, reconciler, logger)
	if err != nil {
		logger.Warn("hotkeys disabled", "error", err)
	} else {
		a.hotkeys = handler
		if err := handler.Bind(cfg.Hotkeys); err != nil {
			logger.Warn("some hotkeys could not be bound", "error", err)
		}
	}

	server, err := ipc.NewServer(ipc.ServerConfig{
		ConfigPath: path,
		Version:    logging.Version,
		Logger:     logger,
	}, a)
	if err != nil {
		logger.Error("failed to create IPC server", "error", err)
		return 1
	}
	if err := server.Start(); err != nil {
		logger.Error("failed to start IPC server", "error", err)
		return 1
	}
	defer server.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		err := config.Watch(ctx, path, func(newCfg *config.Config, err error) {
			if err != nil {
				logger.Warn("config reload failed", "error", err)
				return
			}
			if err := a.apply(ctx, newCfg); err != nil && ctx.Err() == nil {
				logger.Warn("config reload failed", "error", err)
			}
		})
		if err != nil {
			logger.Warn("config watching disabled", "error", err)
		}
	}()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				logger.Info("received SIGHUP, reloading config")
				if err := a.Reload(ctx); err != nil {
					logger.Warn("config reload failed", "error", err)
				}
			}
		}
	}()

	logger.Info("sabiwm daemon started", "socket", server.SocketPath())
	err = reconciler.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("reconciler stopped", "error", err)
		return 1
	}
	logger.Info("shutting down sabiwm daemon")
	return 0
}

func resolveConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return config.DefaultConfigPath()
}
