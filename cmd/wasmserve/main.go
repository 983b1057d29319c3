// Command wasmserve serves a built single-page application and its
// WebAssembly assets with cross-origin isolation and CORS headers.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/Kush-Singh-26/wasmserve/internal/config"
	"github.com/Kush-Singh-26/wasmserve/internal/log"
	"github.com/Kush-Singh-26/wasmserve/internal/router"
	"github.com/Kush-Singh-26/wasmserve/internal/server"
	"github.com/Kush-Singh-26/wasmserve/internal/version"
)

func main() {
	os.Exit(Main())
}

// Main runs the command line and returns the process exit code.
func Main() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	command := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		return serve(ctx, args, stdout, stderr)
	case "check":
		return check(args, stdout, stderr)
	case "version":
		version.Print(stdout)
		return 0
	case "help":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage: wasmserve <command> [flags]")
	_, _ = fmt.Fprintln(w, "\nCommands:")
	_, _ = fmt.Fprintln(w, "  serve          Start the server (default)")
	_, _ = fmt.Fprintln(w, "  check          Print what application routes resolve to and exit")
	_, _ = fmt.Fprintln(w, "  version        Print the version")
	_, _ = fmt.Fprintln(w, "  help           Show this help message")
	_, _ = fmt.Fprintln(w)
	config.Usage(w, config.Flags())
}

// load parses args into a configuration and sets up logging. It returns
// a non-negative exit code when the command should stop there.
func load(args []string, stderr io.Writer) (*config.Config, int) {
	cfg, flags, err := config.Load(args)
	if errors.Is(err, flag.ErrHelp) {
		return nil, 0
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "❌ Error: %v\n", err)
		return nil, 1
	}
	if extra := flags.Args(); len(extra) > 0 {
		_, _ = fmt.Fprintf(stderr, "❌ Error: unexpected arguments: %s\n", strings.Join(extra, " "))
		return nil, 1
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.Output); err != nil {
		_, _ = fmt.Fprintf(stderr, "❌ Error: %v\n", err)
		return nil, 1
	}
	return cfg, -1
}

func serve(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, code := load(args, stderr)
	if cfg == nil {
		return code
	}
	fsys, err := server.OSRoot(cfg.Server.Root)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "❌ Error: %v\n", err)
		return 1
	}
	if err := server.New(cfg, fsys).Run(ctx, stdout); err != nil {
		log.Errorw(err, "server failed")
		_, _ = fmt.Fprintf(stderr, "❌ Error: %v\n", err)
		return 1
	}
	return 0
}

// check exits 0 when application routes resolve to a document and 1 when
// they would answer 404.
func check(args []string, stdout, stderr io.Writer) int {
	cfg, code := load(args, stderr)
	if cfg == nil {
		return code
	}
	fsys, err := server.OSRoot(cfg.Server.Root)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "❌ Error: %v\n", err)
		return 1
	}
	state := router.DetectBuildState(fsys, router.NewLayout(cfg.Layout))
	server.PrintBuildState(stdout, cfg, state)
	if state.Mode() == "none" {
		return 1
	}
	return 0
}
