package app

import (
	"errors"
	"flag"
	"io"

	"github.com/pstuifzand/gdoc/internal/apperr"
	"github.com/pstuifzand/gdoc/internal/config"
)

// cmdFlags is the flag set of one command, with the output flags every
// command accepts after its name
type cmdFlags struct {
	*flag.FlagSet
	app *App

	json    bool
	verbose bool
	plain   bool
	quiet   bool
}

// newFlags creates the flag set for a command. cat and diff use --plain to
// pick the export format, so they register it themselves.
func (a *App) newFlags(name string, plainIsOutput bool) *cmdFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	f := &cmdFlags{FlagSet: fs, app: a}
	fs.BoolVar(&f.json, "json", false, "JSON output")
	fs.BoolVar(&f.verbose, "verbose", false, "detailed output")
	fs.BoolVar(&f.quiet, "quiet", false, "skip the pre-flight check")
	if plainIsOutput {
		fs.BoolVar(&f.plain, "plain", false, "stable tab-separated output")
	}
	return f
}

// parse parses args, allowing flags between positional arguments, and
// checks the number of positional arguments. max < 0 means no limit.
func (f *cmdFlags) parse(args []string, min, max int) ([]string, error) {
	var positional []string
	for {
		if err := f.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, err
			}
			return nil, apperr.Validation("%v (usage: gdoc %s)", err, f.app.usage)
		}
		rest := f.Args()
		consumed := len(args) - len(rest)
		if consumed > 0 && args[consumed-1] == "--" {
			positional = append(positional, rest...)
			break
		}
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}

	if len(positional) < min || (max >= 0 && len(positional) > max) {
		return nil, apperr.Validation("usage: gdoc %s", f.app.usage)
	}

	if err := f.applyOutput(); err != nil {
		return nil, err
	}
	return positional, nil
}

// applyOutput turns the output flags into the session output mode
func (f *cmdFlags) applyOutput() error {
	n := 0
	for _, set := range []bool{f.json, f.verbose, f.plain} {
		if set {
			n++
		}
	}
	if n > 1 {
		return apperr.Validation("--json, --verbose, and --plain are mutually exclusive")
	}

	switch {
	case f.json:
		f.app.cfg.Set("output", config.OutputJSON)
	case f.verbose:
		f.app.cfg.Set("output", config.OutputVerbose)
	case f.plain:
		f.app.cfg.Set("output", config.OutputPlain)
	}
	return nil
}
