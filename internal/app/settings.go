package app

import (
	"context"
	"sort"

	"github.com/pstuifzand/gdoc/internal/apperr"
	"github.com/pstuifzand/gdoc/internal/config"
	"github.com/pstuifzand/gdoc/internal/gapi"
)

func (a *App) cmdAuth(ctx context.Context, args []string) error {
	f := a.newFlags("auth", true)
	if _, err := f.parse(args, 0, 0); err != nil {
		return err
	}
	return gapi.Authenticate(ctx, a.cfg.CredentialsFile, a.cfg.TokenFile, a.stderr)
}

// cmdConfig shows or changes persisted settings
//
//	config             - list all settings
//	config KEY         - show one setting
//	config KEY VALUE   - store a setting in config.toml
func (a *App) cmdConfig(ctx context.Context, args []string) error {
	f := a.newFlags("config", true)
	pos, err := f.parse(args, 0, 2)
	if err != nil {
		return err
	}

	switch len(pos) {
	case 0:
		all := a.cfg.GetAll()
		if a.mode() == config.OutputJSON {
			return a.printJSON(map[string]any{"settings": all})
		}
		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			a.printf("%s\t%s\n", k, all[k])
		}
	case 1:
		value := a.cfg.Get(pos[0])
		if a.mode() == config.OutputJSON {
			return a.printJSON(map[string]any{"key": pos[0], "value": value})
		}
		a.println(value)
	case 2:
		key, value := pos[0], pos[1]
		if key == "output" && !config.ValidOutput(value) {
			return apperr.Validation("invalid output mode %q (choose from terse, json, plain, verbose)", value)
		}
		a.cfg.Settings[key] = value
		if err := a.cfg.Save(); err != nil {
			return err
		}
		a.printf("OK %s = %s\n", key, value)
	}
	return nil
}
