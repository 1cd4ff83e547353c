// Package logging builds the daemon's slog logger from configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/1broseidon/sabiwm/internal/config"
)

// Version is attached to every record under the "sabiwm" key. It is set by
// the linker in release builds.
var Version = "dev"

const logRelPath = "sabiwm/sabiwm.log"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup returns a logger for cfg and a closer for its sink. The closer must
// be called on shutdown to flush and release the log file.
func Setup(cfg config.Logging) (*slog.Logger, io.Closer, error) {
	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)

	switch cfg.File {
	case config.LogFileStderr:
		w = os.Stderr
	default:
		path, err := FilePath(cfg)
		if err != nil {
			return nil, nil, err
		}
		sink := fileSink(path, cfg)
		w, closer = sink, sink
	}

	return New(w, cfg), closer, nil
}

// fileSink returns a size-rotated writer for path. Rotated files are kept
// next to it as name-<timestamp>.log, at most cfg.MaxFiles of them.
func fileSink(path string, cfg config.Logging) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxFiles,
		LocalTime:  true,
	}
}

// New builds a logger writing to w with the level and format of cfg.
func New(w io.Writer, cfg config.Logging) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("sabiwm", Version)
}

// FilePath resolves the log file location: the configured file, or
// sabiwm/sabiwm.log under the XDG cache directory.
func FilePath(cfg config.Logging) (string, error) {
	if cfg.File != "" && cfg.File != config.LogFileStderr {
		return cfg.File, nil
	}
	path, err := xdg.CacheFile(logRelPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve log file: %w", err)
	}
	return path, nil
}

// ParseLevel converts a config level string to a slog level, defaulting to
// info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
