package app

import (
	"context"
	"log"

	"github.com/pstuifzand/gdoc/internal/apperr"
	"github.com/pstuifzand/gdoc/internal/config"
	"github.com/pstuifzand/gdoc/internal/docid"
	"github.com/pstuifzand/gdoc/internal/frontmatter"
	"github.com/pstuifzand/gdoc/internal/gdocs"
	"github.com/pstuifzand/gdoc/internal/state"
	"google.golang.org/api/docs/v1"
)

func (a *App) cmdEdit(ctx context.Context, args []string) error {
	f := a.newFlags("edit", true)
	all := f.Bool("all", false, "replace every occurrence")
	caseSensitive := f.Bool("case-sensitive", false, "match case")
	oldFile := f.String("old-file", "", "read the text to find from a file")
	newFile := f.String("new-file", "", "read the replacement from a file")
	tabName := f.String("tab", "", "edit one tab by title or id")
	pos, err := f.parse(args, 1, 3)
	if err != nil {
		return err
	}
	docID, err := docid.Extract(pos[0])
	if err != nil {
		return err
	}

	var oldText, newText string
	switch {
	case *oldFile != "" || *newFile != "":
		if *oldFile == "" || *newFile == "" {
			return apperr.Validation("--old-file and --new-file must be used together")
		}
		if oldText, err = readTextArg(*oldFile); err != nil {
			return err
		}
		if newText, err = readTextArg(*newFile); err != nil {
			return err
		}
	case len(pos) == 3:
		oldText, newText = pos[1], pos[2]
	default:
		return apperr.Validation("old_text and new_text required (or use --old-file/--new-file)")
	}

	info, err := a.preflight(ctx, docID, f.quiet)
	if err != nil {
		return err
	}
	if info != nil && info.HasConflict() {
		a.warnf("WARN: doc changed since last read\n")
	}

	var (
		body  *docs.Body
		tabID string
	)
	doc, err := a.backend.GetDocument(ctx, docID, *tabName != "")
	if err != nil {
		return err
	}
	if *tabName != "" {
		tab, err := gdocs.ResolveTab(gdocs.FlattenTabs(doc.Tabs), *tabName)
		if err != nil {
			return err
		}
		body, tabID = tab.Body, tab.ID
	} else {
		body = doc.Body
	}

	spans := gdocs.FindText(body, oldText, *caseSensitive)
	if len(spans) == 0 {
		return apperr.Validation("no match found")
	}
	if !*all && len(spans) > 1 {
		return apperr.Validation("multiple matches (%d found). Use --all", len(spans))
	}

	replaced, err := gdocs.NewReplacer(a.backend, a.debug).Replace(ctx, docID, spans, newText, doc.RevisionId, tabID)
	if err != nil {
		return err
	}
	log.Printf("edit %s: replaced %d occurrence(s) at revision %s", docID, replaced, doc.RevisionId)

	version, err := a.currentVersion(ctx, docID)
	if err != nil {
		return err
	}

	switch a.mode() {
	case config.OutputJSON:
		if err := a.printJSON(map[string]any{"replaced": replaced}); err != nil {
			return err
		}
	case config.OutputPlain:
		a.printRecords("id", docID, "status", "updated")
	default:
		a.printf("OK replaced %d %s\n", replaced, pluralize(replaced, "occurrence", "occurrences"))
	}

	return a.finish(docID, state.CmdEdit, f.quiet, info, version, nil)
}

func (a *App) cmdWrite(ctx context.Context, args []string) error {
	f := a.newFlags("write", true)
	force := f.Bool("force", false, "overwrite even if the document changed")
	pos, err := f.parse(args, 2, 2)
	if err != nil {
		return err
	}
	docID, err := docid.Extract(pos[0])
	if err != nil {
		return err
	}

	content, err := readLocalFile(pos[1])
	if err != nil {
		return err
	}

	info, err := a.checkWriteConflict(ctx, docID, f.quiet, *force)
	if err != nil {
		return err
	}

	version, err := a.backend.UpdateContent(ctx, docID, content)
	if err != nil {
		return err
	}

	switch a.mode() {
	case config.OutputJSON:
		if err := a.printJSON(map[string]any{"written": true, "version": version}); err != nil {
			return err
		}
	case config.OutputPlain:
		a.printRecords("id", docID, "status", "updated")
	default:
		a.println("OK written")
	}

	return a.finish(docID, state.CmdWrite, f.quiet, info, versionOf(version), nil)
}

func (a *App) cmdPush(ctx context.Context, args []string) error {
	f := a.newFlags("push", true)
	force := f.Bool("force", false, "overwrite even if the document changed")
	pos, err := f.parse(args, 1, 1)
	if err != nil {
		return err
	}
	path := pos[0]

	content, err := readLocalFile(path)
	if err != nil {
		return err
	}
	meta, body := frontmatter.Parse(content)
	if meta["gdoc"] == "" {
		return apperr.Validation("no gdoc frontmatter found. Use 'gdoc pull' first.")
	}
	docID, err := docid.Extract(meta["gdoc"])
	if err != nil {
		return err
	}

	info, err := a.checkWriteConflict(ctx, docID, f.quiet, *force)
	if err != nil {
		return err
	}

	version, err := a.backend.UpdateContent(ctx, docID, body)
	if err != nil {
		return err
	}

	switch a.mode() {
	case config.OutputJSON:
		if err := a.printJSON(map[string]any{"pushed": true, "file": path, "version": version}); err != nil {
			return err
		}
	case config.OutputPlain:
		a.printRecords("id", docID, "status", "updated")
	default:
		a.printf("OK pushed %s\n", path)
	}

	return a.finish(docID, state.CmdPush, f.quiet, info, versionOf(version), nil)
}
