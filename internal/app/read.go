package app

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pstuifzand/gdoc/internal/annotate"
	"github.com/pstuifzand/gdoc/internal/apperr"
	"github.com/pstuifzand/gdoc/internal/config"
	"github.com/pstuifzand/gdoc/internal/diff"
	"github.com/pstuifzand/gdoc/internal/docid"
	"github.com/pstuifzand/gdoc/internal/frontmatter"
	"github.com/pstuifzand/gdoc/internal/gdocs"
	"github.com/pstuifzand/gdoc/internal/remote"
	"github.com/pstuifzand/gdoc/internal/state"
)

func (a *App) cmdCat(ctx context.Context, args []string) error {
	f := a.newFlags("cat", false)
	plain := f.Bool("plain", false, "export as plain text")
	withComments := f.Bool("comments", false, "annotate with comments")
	all := f.Bool("all", false, "include resolved comments")
	tabName := f.String("tab", "", "read one tab by title or id")
	allTabs := f.Bool("all-tabs", false, "read every tab")
	maxBytes := f.Int("max-bytes", 0, "truncate output to N bytes")
	pos, err := f.parse(args, 1, 1)
	if err != nil {
		return err
	}

	docID, err := docid.Extract(pos[0])
	if err != nil {
		return err
	}
	exportPlain := *plain || a.isPlainOutput()
	if *withComments && exportPlain {
		return apperr.Validation("--comments and --plain are mutually exclusive")
	}
	if (*tabName != "" || *allTabs) && *withComments {
		return apperr.Validation("--tab/--all-tabs and --comments are mutually exclusive")
	}
	if *tabName != "" && *allTabs {
		return apperr.Validation("--tab and --all-tabs are mutually exclusive")
	}

	info, err := a.preflight(ctx, docID, f.quiet)
	if err != nil {
		return err
	}

	fields := map[string]any{}
	var content string
	switch {
	case *tabName != "" || *allTabs:
		tabs, err := a.documentTabs(ctx, docID)
		if err != nil {
			return err
		}
		if *tabName != "" {
			tab, err := gdocs.ResolveTab(tabs, *tabName)
			if err != nil {
				return err
			}
			content = gdocs.BodyText(tab.Body)
			fields["tab"] = tab.Title
		} else {
			var sb strings.Builder
			for _, tab := range tabs {
				sb.WriteString("=== Tab: " + tab.Title + " ===\n")
				sb.WriteString(gdocs.BodyText(tab.Body))
			}
			content = sb.String()
		}

	case *withComments:
		markdown, err := a.backend.Export(ctx, docID, remote.MimeMarkdown)
		if err != nil {
			return err
		}
		comments, err := a.backend.ListComments(ctx, docID, remote.ListCommentsOptions{
			IncludeResolved: *all,
			IncludeAnchor:   true,
		})
		if err != nil {
			return err
		}
		content = annotate.Markdown(markdown, comments, *all)

	default:
		mimeType := remote.MimeMarkdown
		if exportPlain {
			mimeType = remote.MimePlain
		}
		content, err = a.backend.Export(ctx, docID, mimeType)
		if err != nil {
			return err
		}
	}

	content = truncateBytes(content, *maxBytes)
	if a.mode() == config.OutputJSON {
		fields["content"] = content
		if err := a.printJSON(fields); err != nil {
			return err
		}
	} else {
		a.printf("%s", content)
	}

	return a.finish(docID, state.CmdCat, f.quiet, info, nil, nil)
}

// documentTabs fetches a document with its tab contents, flattened
func (a *App) documentTabs(ctx context.Context, docID string) ([]gdocs.Tab, error) {
	doc, err := a.backend.GetDocument(ctx, docID, true)
	if err != nil {
		return nil, err
	}
	return gdocs.FlattenTabs(doc.Tabs), nil
}

func (a *App) cmdTabs(ctx context.Context, args []string) error {
	f := a.newFlags("tabs", true)
	pos, err := f.parse(args, 1, 1)
	if err != nil {
		return err
	}
	docID, err := docid.Extract(pos[0])
	if err != nil {
		return err
	}

	info, err := a.preflight(ctx, docID, f.quiet)
	if err != nil {
		return err
	}

	tabs, err := a.documentTabs(ctx, docID)
	if err != nil {
		return err
	}

	switch a.mode() {
	case config.OutputJSON:
		list := make([]map[string]any, 0, len(tabs))
		for _, t := range tabs {
			list = append(list, map[string]any{
				"id":            t.ID,
				"title":         t.Title,
				"index":         t.Index,
				"nesting_level": t.NestingLevel,
			})
		}
		if err := a.printJSON(map[string]any{"tabs": list}); err != nil {
			return err
		}
	case config.OutputPlain:
		for _, t := range tabs {
			a.printf("%s\t%s\n", t.ID, t.Title)
		}
	case config.OutputVerbose:
		for _, t := range tabs {
			a.printf("%s\t%s\tindex=%d\tlevel=%d\n", t.ID, t.Title, t.Index, t.NestingLevel)
		}
	default:
		if len(tabs) == 0 {
			a.println("No tabs.")
		}
		for _, t := range tabs {
			a.printf("%s%s\t%s\n", strings.Repeat("  ", t.NestingLevel), t.ID, t.Title)
		}
	}

	return a.finish(docID, "tabs", f.quiet, info, nil, nil)
}

func (a *App) cmdInfo(ctx context.Context, args []string) error {
	f := a.newFlags("info", true)
	pos, err := f.parse(args, 1, 1)
	if err != nil {
		return err
	}
	docID, err := docid.Extract(pos[0])
	if err != nil {
		return err
	}

	info, err := a.preflight(ctx, docID, f.quiet)
	if err != nil {
		return err
	}

	meta, err := a.backend.FileInfo(ctx, docID)
	if err != nil {
		return err
	}

	var words any = "N/A"
	text, err := a.backend.Export(ctx, docID, remote.MimePlain)
	switch {
	case err == nil:
		words = len(strings.Fields(text))
	case !strings.Contains(err.Error(), "not a Google Docs editor document"):
		return err
	}

	owner := "Unknown"
	if len(meta.Owners) > 0 {
		if o := meta.Owners[0]; o.DisplayName != "" {
			owner = o.DisplayName
		} else if o.EmailAddress != "" {
			owner = o.EmailAddress
		}
	}

	switch a.mode() {
	case config.OutputJSON:
		if err := a.printJSON(map[string]any{
			"id":       docID,
			"title":    meta.Name,
			"owner":    owner,
			"modified": meta.ModifiedTime,
			"words":    words,
		}); err != nil {
			return err
		}
	case config.OutputPlain:
		a.printf("title\t%s\nowner\t%s\nmodified\t%s\nwords\t%v\n", meta.Name, owner, meta.ModifiedTime, words)
	case config.OutputVerbose:
		editor := ""
		if u := meta.LastModifyingUser; u != nil {
			editor = u.DisplayName
			if editor == "" {
				editor = u.EmailAddress
			}
		}
		size := "N/A"
		if meta.Size > 0 {
			size = strconv.FormatInt(meta.Size, 10)
		}
		a.printf("Title: %s\n", meta.Name)
		a.printf("Owner: %s\n", owner)
		a.printf("Modified: %s\n", meta.ModifiedTime)
		a.printf("Created: %s\n", meta.CreatedTime)
		a.printf("Last editor: %s\n", editor)
		a.printf("Type: %s\n", meta.MimeType)
		a.printf("Size: %s\n", size)
		a.printf("Words: %v\n", words)
	default:
		a.printf("Title: %s\n", meta.Name)
		a.printf("Owner: %s\n", owner)
		a.printf("Modified: %s\n", day(meta.ModifiedTime))
		a.printf("Words: %v\n", words)
	}

	return a.finish(docID, state.CmdInfo, f.quiet, info, versionOf(meta.Version), nil)
}

func (a *App) cmdPull(ctx context.Context, args []string) error {
	f := a.newFlags("pull", true)
	pos, err := f.parse(args, 2, 2)
	if err != nil {
		return err
	}
	docID, err := docid.Extract(pos[0])
	if err != nil {
		return err
	}
	path := pos[1]

	info, err := a.preflight(ctx, docID, f.quiet)
	if err != nil {
		return err
	}

	markdown, err := a.backend.Export(ctx, docID, remote.MimeMarkdown)
	if err != nil {
		return err
	}
	meta, err := a.backend.FileInfo(ctx, docID)
	if err != nil {
		return err
	}

	content, err := frontmatter.Add(markdown,
		frontmatter.Field{Key: "gdoc", Value: docID},
		frontmatter.Field{Key: "title", Value: meta.Name},
	)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "cannot write file: %v", err)
	}

	switch a.mode() {
	case config.OutputJSON:
		if err := a.printJSON(map[string]any{"pulled": true, "title": meta.Name, "file": path}); err != nil {
			return err
		}
	case config.OutputPlain:
		a.printRecords("path", path)
	case config.OutputVerbose:
		a.printf("Pulled: \"%s\"\nFile: %s\nDoc ID: %s\n", meta.Name, path, docID)
	default:
		a.printf("OK pulled \"%s\" -> %s\n", meta.Name, path)
	}

	return a.finish(docID, state.CmdPull, f.quiet, info, versionOf(meta.Version), nil)
}

func (a *App) cmdDiff(ctx context.Context, args []string) error {
	f := a.newFlags("diff", false)
	plain := f.Bool("plain", false, "compare against the plain text export")
	pos, err := f.parse(args, 2, 2)
	if err != nil {
		return err
	}
	docID, err := docid.Extract(pos[0])
	if err != nil {
		return err
	}
	path := pos[1]

	info, err := a.preflight(ctx, docID, f.quiet)
	if err != nil {
		return err
	}

	mimeType := remote.MimeMarkdown
	if *plain || a.isPlainOutput() {
		mimeType = remote.MimePlain
	}
	remoteText, err := a.backend.Export(ctx, docID, mimeType)
	if err != nil {
		return err
	}
	local, err := readLocalFile(path)
	if err != nil {
		return err
	}

	short := docID
	if len(short) > 12 {
		short = short[:12]
	}
	result, err := diff.Compute(remoteText, local, "gdoc:"+short, path)
	if err != nil {
		return err
	}

	switch {
	case a.mode() == config.OutputJSON:
		if err := a.printJSON(map[string]any{"identical": result.Identical(), "diff": result.Unified}); err != nil {
			return err
		}
	case result.Identical():
		a.println("OK identical")
	case a.mode() == config.OutputPlain:
		a.printf("%s", diff.FormatPlain(result))
	case a.mode() == config.OutputVerbose:
		a.printf("%s", result.Unified)
		a.println(diff.Summary(result))
	default:
		a.printf("%s", result.Unified)
	}

	if !result.Identical() {
		a.exitCode = 1
	}
	return a.finish(docID, "diff", f.quiet, info, nil, nil)
}

func points(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (a *App) cmdImages(ctx context.Context, args []string) error {
	f := a.newFlags("images", true)
	download := f.String("download", "", "save images into this directory")
	pos, err := f.parse(args, 1, 2)
	if err != nil {
		return err
	}
	docID, err := docid.Extract(pos[0])
	if err != nil {
		return err
	}

	info, err := a.preflight(ctx, docID, f.quiet)
	if err != nil {
		return err
	}

	doc, err := a.backend.GetDocument(ctx, docID, false)
	if err != nil {
		return err
	}
	images := gdocs.ListImages(doc)
	if len(pos) == 2 {
		img, ok := gdocs.FindImage(images, pos[1])
		if !ok {
			return apperr.Validation("image not found: %s", pos[1])
		}
		images = []gdocs.Image{img}
	}

	if *download != "" {
		if err := a.downloadImages(ctx, images, *download); err != nil {
			return err
		}
		return a.finish(docID, "images", f.quiet, info, nil, nil)
	}

	mode := a.mode()
	switch {
	case mode == config.OutputJSON:
		if images == nil {
			images = []gdocs.Image{}
		}
		if err := a.printJSON(map[string]any{"images": images}); err != nil {
			return err
		}
	case mode == config.OutputPlain:
		for _, img := range images {
			a.printf("%s\t%s\t%s\t%s\t%s\n", img.ID, img.Type, img.Title, points(img.WidthPt), points(img.HeightPt))
		}
	case len(images) == 0:
		a.println("No images.")
	default:
		for _, img := range images {
			title := "(no title)"
			if img.Title != "" {
				title = `"` + img.Title + `"`
			}
			dims := points(img.WidthPt) + "x" + points(img.HeightPt) + "pt"
			if img.Type == gdocs.ObjectDrawing {
				dims = "(not exportable)"
			}
			if mode == config.OutputVerbose {
				a.printf("%s  %s  %s  %s  %s\n", img.ID, img.Type, title, dims, img.Description)
			} else {
				a.printf("%s  %s  %s  %s\n", img.ID, img.Type, title, dims)
			}
		}
	}

	return a.finish(docID, "images", f.quiet, info, nil, nil)
}

// downloadImages saves every exportable image as DIR/<id>.png and prints
// the paths written. Drawings have no content to fetch.
func (a *App) downloadImages(ctx context.Context, images []gdocs.Image, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "cannot create directory: %v", err)
	}

	for _, img := range images {
		if img.Type == gdocs.ObjectDrawing {
			a.warnf("WARN: %s is a drawing (cannot export)\n", img.ID)
			continue
		}
		if img.ContentURI == "" {
			a.warnf("WARN: %s has no content URI\n", img.ID)
			continue
		}

		data, err := a.backend.DownloadImage(ctx, img.ContentURI)
		if err != nil {
			return err
		}
		dest := filepath.Join(dir, img.ID+".png")
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return apperr.Wrap(apperr.KindValidation, err, "cannot write file: %v", err)
		}
		a.println(dest)
	}
	return nil
}
