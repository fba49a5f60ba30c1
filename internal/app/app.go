// Package app implements the gdoc commands on top of the remote backend,
// the pre-flight check and the per-document state store.
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/pstuifzand/gdoc/internal/apperr"
	"github.com/pstuifzand/gdoc/internal/config"
	"github.com/pstuifzand/gdoc/internal/notify"
	"github.com/pstuifzand/gdoc/internal/remote"
	"github.com/pstuifzand/gdoc/internal/state"
	"golang.org/x/term"
)

// Options configures an App
type Options struct {
	// Backend may be nil when only local commands will run
	Backend remote.Backend
	Config  *config.Config
	Stdout  io.Writer
	Stderr  io.Writer
	Stdin   io.Reader
	Debug   bool

	// AllowCommands restricts which commands may run. Empty allows all.
	AllowCommands []string

	// IsTerminal reports whether stdin is interactive
	IsTerminal func() bool
}

// App is the main application controller
type App struct {
	backend    remote.Backend
	cfg        *config.Config
	store      *state.Store
	detector   *notify.Detector
	stdout     io.Writer
	stderr     io.Writer
	stdin      *bufio.Reader
	debug      bool
	allowed    []string
	isTerminal func() bool

	// usage of the running command, for argument errors
	usage string
	// exitCode is set by commands that succeed with a non-zero status
	exitCode int
}

// New creates a new App instance
func New(opts Options) *App {
	a := &App{
		backend:    opts.Backend,
		cfg:        opts.Config,
		stdout:     opts.Stdout,
		stderr:     opts.Stderr,
		debug:      opts.Debug,
		isTerminal: opts.IsTerminal,
	}
	if a.cfg == nil {
		a.cfg, _ = config.Load()
	}
	if a.stdout == nil {
		a.stdout = os.Stdout
	}
	if a.stderr == nil {
		a.stderr = os.Stderr
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	a.stdin = bufio.NewReader(opts.Stdin)
	if a.isTerminal == nil {
		a.isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	}
	for _, c := range opts.AllowCommands {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			a.allowed = append(a.allowed, c)
		}
	}

	a.store = state.NewStore(a.cfg.StateDir)
	if a.backend != nil {
		a.detector = notify.NewDetector(a.backend, a.store, a.stderr)
	}
	return a
}

// command is one gdoc subcommand
type command struct {
	name  string
	usage string
	// local commands run without a backend
	local bool
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = []command{
	{name: "auth", usage: "auth", local: true, run: (*App).cmdAuth},
	{name: "config", usage: "config [KEY [VALUE]]", local: true, run: (*App).cmdConfig},
	{name: "ls", usage: "ls [FOLDER] [--type docs|sheets|all]", run: (*App).cmdLs},
	{name: "find", usage: "find QUERY [--title]", run: (*App).cmdFind},
	{name: "cat", usage: "cat DOC [--plain|--comments [--all]|--tab T|--all-tabs] [--max-bytes N]", run: (*App).cmdCat},
	{name: "tabs", usage: "tabs DOC", run: (*App).cmdTabs},
	{name: "info", usage: "info DOC", run: (*App).cmdInfo},
	{name: "images", usage: "images DOC [IMAGE_ID] [--download DIR]", run: (*App).cmdImages},
	{name: "edit", usage: "edit DOC OLD NEW [--all] [--case-sensitive] [--old-file F --new-file F] [--tab T]", run: (*App).cmdEdit},
	{name: "write", usage: "write DOC FILE [--force]", run: (*App).cmdWrite},
	{name: "pull", usage: "pull DOC FILE", run: (*App).cmdPull},
	{name: "push", usage: "push FILE [--force]", run: (*App).cmdPush},
	{name: "diff", usage: "diff DOC FILE [--plain]", run: (*App).cmdDiff},
	{name: "comments", usage: "comments DOC [--all]", run: (*App).cmdComments},
	{name: "comment-info", usage: "comment-info DOC COMMENT_ID", run: (*App).cmdCommentInfo},
	{name: "comment", usage: "comment DOC TEXT [--quote Q]", run: (*App).cmdComment},
	{name: "reply", usage: "reply DOC COMMENT_ID TEXT", run: (*App).cmdReply},
	{name: "resolve", usage: "resolve DOC COMMENT_ID [-m MESSAGE]", run: (*App).cmdResolve},
	{name: "reopen", usage: "reopen DOC COMMENT_ID", run: (*App).cmdReopen},
	{name: "delete-comment", usage: "delete-comment DOC COMMENT_ID [--force]", run: (*App).cmdDeleteComment},
	{name: "new", usage: "new TITLE [--folder F] [--file MD]", run: (*App).cmdNew},
	{name: "cp", usage: "cp DOC TITLE", run: (*App).cmdCopy},
	{name: "share", usage: "share DOC EMAIL [--role reader|writer|commenter]", run: (*App).cmdShare},
}

func lookup(name string) (command, bool) {
	i := slices.IndexFunc(commands, func(c command) bool { return c.name == name })
	if i < 0 {
		return command{}, false
	}
	return commands[i], true
}

// NeedsBackend reports whether the named command talks to the remote
// service. Unknown names report false.
func NeedsBackend(name string) bool {
	c, ok := lookup(name)
	return ok && !c.local
}

// Usage writes the command overview to w
func Usage(w io.Writer) {
	fmt.Fprintln(w, "usage: gdoc [--json|--plain|--verbose] [--debug] [--allow-commands LIST] COMMAND [ARGS]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %s\n", c.usage)
	}
}

// Run executes one command. The returned code is the exit status for a
// command that succeeded; failures are reported through the error.
func (a *App) Run(ctx context.Context, name string, args []string) (int, error) {
	c, ok := lookup(name)
	if !ok {
		return 0, apperr.Validation("unknown command: %s", name)
	}
	if len(a.allowed) > 0 && !slices.Contains(a.allowed, strings.ToLower(name)) {
		return 0, apperr.Validation("command not allowed: %s", name)
	}
	if !c.local && a.backend == nil {
		return 0, apperr.New(apperr.KindBackend, "no backend configured for %s", name)
	}

	log.Printf("running %s %q", name, args)
	a.usage = c.usage
	a.exitCode = 0
	if err := c.run(a, ctx, args); err != nil {
		log.Printf("%s failed: %v", name, err)
		return 0, err
	}
	return a.exitCode, nil
}
