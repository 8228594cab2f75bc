package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/whyash5114/notistore/internal/bridge"
	"github.com/whyash5114/notistore/internal/config"
	"github.com/whyash5114/notistore/internal/db"
	"github.com/whyash5114/notistore/internal/iconcodec"
	"github.com/whyash5114/notistore/internal/ingest"
	"github.com/whyash5114/notistore/internal/listener"
	"github.com/whyash5114/notistore/internal/logutils"
	"github.com/whyash5114/notistore/internal/parser"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"list": true, "count": true, "size": true,
	"export": true, "import": true, "purge": true,
	"config": true,
	"help":   true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
             _   _    _
  _ _  ___ | |_(_)__| |_ ___ _ _ ___
 | ' \/ _ \|  _| (_-<  _/ _ \ '_/ -_)
 |_||_\___/ \__|_/__/\__\___/_| \___|

  Local notification store

  Usage: notistore <command> [options]
         notistore --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, "")
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".notistore")

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	settings := config.NewManager(baseDir)

	log, closeLog, err := logutils.New(settings.Get().LogLevel, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if loadErr := settings.LoadErr(); loadErr != nil {
		log.Warn().Err(loadErr).Msg("settings unreadable, using defaults")
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(database, settings, baseDir)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'notistore --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default). The listener holder starts detached;
	// an embedding host attaches a live service when one connects.
	ctx := context.Background()
	holder := &listener.Holder{}
	codec := iconcodec.NewPNG()
	deps := bridge.Deps{
		DB:       database,
		Settings: settings,
		Holder:   holder,
		Codec:    codec,
		BaseDir:  baseDir,
	}

	pipeline := ingest.New(database, settings, holder, parser.Options{Codec: codec}, log)
	pipeline.Start(ctx)
	defer pipeline.Stop()

	if err := bridge.Run(ctx, deps, pipeline, Version, log); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
