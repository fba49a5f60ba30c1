package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pstuifzand/gdoc/internal/app"
	"github.com/pstuifzand/gdoc/internal/apperr"
	"github.com/pstuifzand/gdoc/internal/config"
	"github.com/pstuifzand/gdoc/internal/gapi"
	"github.com/pstuifzand/gdoc/internal/remote"
)

// EnvAllowCommands holds the default for --allow-commands
const EnvAllowCommands = "GDOC_ALLOW_COMMANDS"

func main() {
	jsonOut := flag.Bool("json", false, "JSON output")
	plainOut := flag.Bool("plain", false, "plain, tab separated output")
	verboseOut := flag.Bool("verbose", false, "verbose output")
	debug := flag.Bool("debug", false, "Enable debug mode (dumps edit requests to the log)")
	allow := flag.String("allow-commands", os.Getenv(EnvAllowCommands), "comma separated list of commands that may run")
	flag.Usage = func() { app.Usage(os.Stderr) }
	flag.Parse()

	os.Exit(run(*jsonOut, *plainOut, *verboseOut, *debug, *allow, flag.Args()))
}

func run(jsonOut, plainOut, verboseOut, debug bool, allow string, args []string) int {
	if len(args) == 0 {
		app.Usage(os.Stderr)
		return 3
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERR: %v\n", err)
		return 1
	}

	closeLog := setupLog(cfg.LogPath())
	defer closeLog()

	modes := 0
	for mode, set := range map[string]bool{config.OutputJSON: jsonOut, config.OutputPlain: plainOut, config.OutputVerbose: verboseOut} {
		if set {
			cfg.Set("output", mode)
			modes++
		}
	}
	if modes > 1 {
		fmt.Fprintln(os.Stderr, "ERR: --json, --verbose, and --plain are mutually exclusive")
		return 3
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var backend remote.Backend
	if app.NeedsBackend(args[0]) {
		httpClient, err := gapi.NewHTTPClient(ctx, cfg.CredentialsFile, cfg.TokenFile)
		if err != nil {
			return fail(err)
		}
		client, err := gapi.NewClient(ctx, httpClient)
		if err != nil {
			return fail(err)
		}
		backend = client
	}

	var allowed []string
	if allow != "" {
		allowed = strings.Split(allow, ",")
	}

	application := app.New(app.Options{
		Backend:       backend,
		Config:        cfg,
		Debug:         debug,
		AllowCommands: allowed,
	})

	code, err := application.Run(ctx, args[0], args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return fail(err)
	}
	return code
}

func fail(err error) int {
	log.Printf("error: %v", err)
	fmt.Fprintf(os.Stderr, "ERR: %v\n", err)
	return apperr.ExitCode(err)
}

// setupLog sends the standard logger to path, tagging every line with an
// id for this invocation. An empty path disables logging.
func setupLog(path string) func() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetPrefix(uuid.NewString()[:8] + " ")

	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	log.SetOutput(logFile)
	return func() { logFile.Close() }
}
