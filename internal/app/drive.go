package app

import (
	"context"
	"strings"

	"github.com/pstuifzand/gdoc/internal/apperr"
	"github.com/pstuifzand/gdoc/internal/config"
	"github.com/pstuifzand/gdoc/internal/docid"
	"github.com/pstuifzand/gdoc/internal/remote"
	"github.com/pstuifzand/gdoc/internal/state"
	"google.golang.org/api/drive/v3"
)

// validRoles are the permission roles share accepts
var validRoles = map[string]bool{
	"reader":    true,
	"writer":    true,
	"commenter": true,
}

// quoteQuery escapes s for use inside a single-quoted Drive query string
func quoteQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func (a *App) printFiles(files []*drive.File) error {
	mode := a.mode()
	if mode == config.OutputJSON {
		if files == nil {
			files = []*drive.File{}
		}
		return a.printJSON(map[string]any{"files": files})
	}

	if len(files) == 0 {
		if mode != config.OutputPlain {
			a.println("No files.")
		}
		return nil
	}
	for _, f := range files {
		switch mode {
		case config.OutputVerbose:
			a.printf("%s\t%s\t%s\t%s\n", f.Id, f.Name, f.ModifiedTime, f.MimeType)
		case config.OutputPlain:
			a.printf("%s\t%s\t%s\n", f.Id, f.Name, f.MimeType)
		default:
			a.printf("%s\t%s\t%s\n", f.Id, f.Name, day(f.ModifiedTime))
		}
	}
	return nil
}

func (a *App) cmdLs(ctx context.Context, args []string) error {
	f := a.newFlags("ls", true)
	fileType := f.String("type", "all", "file type filter: docs, sheets or all")
	pos, err := f.parse(args, 0, 1)
	if err != nil {
		return err
	}

	parent := "root"
	if len(pos) == 1 {
		if parent, err = docid.Extract(pos[0]); err != nil {
			return err
		}
	}

	parts := []string{"'" + quoteQuery(parent) + "' in parents", "trashed=false"}
	switch *fileType {
	case "docs":
		parts = append(parts, "mimeType='"+remote.MimeGoogleDoc+"'")
	case "sheets":
		parts = append(parts, "mimeType='"+remote.MimeGoogleSheet+"'")
	case "all":
	default:
		return apperr.Validation("invalid --type %q (choose from docs, sheets, all)", *fileType)
	}

	files, err := a.backend.ListFiles(ctx, strings.Join(parts, " and "))
	if err != nil {
		return err
	}
	return a.printFiles(files)
}

func (a *App) cmdFind(ctx context.Context, args []string) error {
	f := a.newFlags("find", true)
	titleOnly := f.Bool("title", false, "search titles only")
	pos, err := f.parse(args, 1, 1)
	if err != nil {
		return err
	}

	q := quoteQuery(pos[0])
	query := "(name contains '" + q + "' or fullText contains '" + q + "') and trashed=false"
	if *titleOnly {
		query = "name contains '" + q + "' and trashed=false"
	}

	files, err := a.backend.ListFiles(ctx, query)
	if err != nil {
		return err
	}
	return a.printFiles(files)
}

// printCreated reports a document made by new or cp
func (a *App) printCreated(verb, title string, file *drive.File) error {
	name := file.Name
	if name == "" {
		name = title
	}

	switch a.mode() {
	case config.OutputJSON:
		return a.printJSON(map[string]any{"id": file.Id, "title": name, "url": file.WebViewLink})
	case config.OutputPlain:
		a.printRecords("id", file.Id)
	case config.OutputVerbose:
		a.printf("%s: %s\nID: %s\nURL: %s\n", verb, name, file.Id, file.WebViewLink)
	default:
		a.println(file.Id)
	}
	return nil
}

func (a *App) cmdNew(ctx context.Context, args []string) error {
	f := a.newFlags("new", true)
	folder := f.String("folder", "", "create inside this folder")
	file := f.String("file", "", "initial content from a markdown file")
	pos, err := f.parse(args, 1, 1)
	if err != nil {
		return err
	}
	title := pos[0]

	var folderID string
	if *folder != "" {
		if folderID, err = docid.Extract(*folder); err != nil {
			return err
		}
	}

	var markdown string
	if *file != "" {
		if markdown, err = readLocalFile(*file); err != nil {
			return err
		}
	}

	created, err := a.backend.CreateDoc(ctx, title, folderID, markdown)
	if err != nil {
		return err
	}
	if err := a.printCreated("Created", title, created); err != nil {
		return err
	}

	return a.finish(created.Id, state.CmdNew, false, nil, versionOf(created.Version), nil)
}

func (a *App) cmdCopy(ctx context.Context, args []string) error {
	f := a.newFlags("cp", true)
	pos, err := f.parse(args, 2, 2)
	if err != nil {
		return err
	}
	docID, err := docid.Extract(pos[0])
	if err != nil {
		return err
	}
	title := pos[1]

	info, err := a.preflight(ctx, docID, f.quiet)
	if err != nil {
		return err
	}

	copied, err := a.backend.CopyDoc(ctx, docID, title)
	if err != nil {
		return err
	}
	if err := a.printCreated("Copied", title, copied); err != nil {
		return err
	}

	if err := a.finish(docID, state.CmdCopy, f.quiet, info, nil, nil); err != nil {
		return err
	}
	return a.finish(copied.Id, state.CmdCopy, false, nil, versionOf(copied.Version), nil)
}

func (a *App) cmdShare(ctx context.Context, args []string) error {
	f := a.newFlags("share", true)
	role := f.String("role", "reader", "reader, writer or commenter")
	pos, err := f.parse(args, 2, 2)
	if err != nil {
		return err
	}
	docID, err := docid.Extract(pos[0])
	if err != nil {
		return err
	}
	email := pos[1]
	if !validRoles[*role] {
		return apperr.Validation("invalid --role %q (choose from reader, writer, commenter)", *role)
	}

	info, err := a.preflight(ctx, docID, f.quiet)
	if err != nil {
		return err
	}

	if err := a.backend.Share(ctx, docID, email, *role); err != nil {
		return err
	}

	switch a.mode() {
	case config.OutputJSON:
		if err := a.printJSON(map[string]any{"email": email, "role": *role, "status": "shared"}); err != nil {
			return err
		}
	case config.OutputPlain:
		a.printRecords("email", email, "role", *role)
	default:
		a.printf("OK shared with %s as %s\n", email, *role)
	}

	return a.finish(docID, "share", f.quiet, info, nil, nil)
}
