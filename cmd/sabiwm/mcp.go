package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/sabiwm/internal/config"
	"github.com/1broseidon/sabiwm/internal/ipc"
	"github.com/1broseidon/sabiwm/internal/logging"
	"github.com/1broseidon/sabiwm/internal/mcp"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: sabiwm mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'sabiwm mcp <command> --help' for command-specific options.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(os.Stderr)
		return 2
	}
}

func runMCPServe(args []string) int {
	fs := newFlagSet("serve",
		"Usage: sabiwm mcp serve",
		"",
		"Start the MCP server on stdio. Every tool forwards to the running",
		"daemon over its IPC socket.",
		"",
		"Example:",
		"  claude mcp add sabiwm -- sabiwm mcp serve",
	)
	socket := fs.String("socket", "", "Daemon socket path (default: per-display runtime socket)")
	if code := parse(fs, args, 0); code >= 0 {
		return code
	}

	cfg, err := config.Load()
	if err != nil {
		return fail(fmt.Errorf("failed to load config: %w", err))
	}
	logger, closer, err := logging.Setup(cfg.Logging)
	if err != nil {
		return fail(err)
	}
	defer closer.Close()
	logger = logger.With("component", "mcp")

	client := ipc.NewClient()
	if *socket != "" {
		client = ipc.NewClientWithSocket(*socket)
	}
	server := mcp.NewServer(client, logging.Version, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("MCP server error", "error", err)
		return fail(fmt.Errorf("MCP server error: %w", err))
	}
	return 0
}
