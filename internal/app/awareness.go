package app

import (
	"context"
	"os"
	"strings"

	"github.com/pstuifzand/gdoc/internal/apperr"
	"github.com/pstuifzand/gdoc/internal/notify"
	"github.com/pstuifzand/gdoc/internal/state"
)

// preflight prints what changed since the last interaction with docID
func (a *App) preflight(ctx context.Context, docID string, quiet bool) (*notify.ChangeInfo, error) {
	return a.detector.Run(ctx, docID, quiet)
}

// finish records a successful command in the state of docID
func (a *App) finish(docID, command string, quiet bool, info *notify.ChangeInfo, version *int64, patch *state.CommentPatch) error {
	u := state.Update{
		Command:        command,
		Quiet:          quiet,
		CommandVersion: version,
		Patch:          patch,
	}
	if info != nil {
		u.Observation = info.Observation()
	}
	return a.store.UpdateAfterCommand(docID, u)
}

// currentVersion fetches the version of docID, nil when the service does
// not report one
func (a *App) currentVersion(ctx context.Context, docID string) (*int64, error) {
	f, err := a.backend.FileVersion(ctx, docID)
	if err != nil {
		return nil, err
	}
	return versionOf(f.Version), nil
}

func versionOf(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

const (
	errNoBaseline = "no read baseline. Run 'gdoc cat' first, or use --force to overwrite."
	errChanged    = "doc changed since last read. Run 'gdoc cat' first, or use --force to overwrite."
)

// checkWriteConflict blocks a full overwrite of a document that changed
// since it was last read. Without quiet the pre-flight runs and its result
// is returned; with quiet the stored baseline is compared against one
// version fetch.
func (a *App) checkWriteConflict(ctx context.Context, docID string, quiet, force bool) (*notify.ChangeInfo, error) {
	if !quiet {
		info, err := a.preflight(ctx, docID, false)
		if err != nil {
			return nil, err
		}
		if !force {
			if info.LastReadVersion == nil {
				return nil, apperr.Conflict(errNoBaseline)
			}
			if info.HasConflict() {
				return nil, apperr.Conflict(errChanged)
			}
		}
		return info, nil
	}

	if force {
		return nil, nil
	}

	st := a.store.Load(docID)
	if st == nil || st.LastReadVersion == nil {
		return nil, apperr.Conflict(errNoBaseline)
	}
	current, err := a.currentVersion(ctx, docID)
	if err != nil {
		return nil, err
	}
	if current != nil && *current != *st.LastReadVersion {
		return nil, apperr.Conflict(errChanged)
	}
	return nil, nil
}

// readLocalFile reads a file named on the command line
func readLocalFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", apperr.Validation("file not found: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, err, "cannot read file: %v", err)
	}
	return string(data), nil
}

// readTextArg reads a replacement text file. One trailing newline is
// dropped since editors add it.
func readTextArg(path string) (string, error) {
	content, err := readLocalFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(content, "\n"), nil
}
