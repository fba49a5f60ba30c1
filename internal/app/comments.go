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

func commentStatus(c *drive.Comment) string {
	if c.Resolved {
		return "resolved"
	}
	return "open"
}

func (a *App) cmdComments(ctx context.Context, args []string) error {
	f := a.newFlags("comments", true)
	all := f.Bool("all", false, "include resolved comments")
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

	// A full listing, separate from the time-bounded pre-flight one
	comments, err := a.backend.ListComments(ctx, docID, remote.ListCommentsOptions{IncludeResolved: *all})
	if err != nil {
		return err
	}

	switch a.mode() {
	case config.OutputJSON:
		if comments == nil {
			comments = []*drive.Comment{}
		}
		if err := a.printJSON(map[string]any{"comments": comments}); err != nil {
			return err
		}
	case config.OutputPlain:
		for _, c := range comments {
			a.printf("%s\t%s\t%s\t%s\n", c.Id, commentStatus(c), personName(c.Author), firstLine(c.Content))
		}
	default:
		if len(comments) == 0 {
			a.println("No comments.")
		}
		for _, c := range comments {
			created := day(c.CreatedTime)
			if a.mode() == config.OutputVerbose {
				created = c.CreatedTime
			}
			a.printf("#%s [%s] %s %s\n", c.Id, commentStatus(c), personName(c.Author), created)
			a.printf("  \"%s\"\n", c.Content)
			for _, r := range c.Replies {
				// resolve and reopen markers carry no text
				if r.Content == "" {
					continue
				}
				a.printf("  -> %s: \"%s\"\n", personName(r.Author), r.Content)
			}
		}
	}

	return a.finish(docID, "comments", f.quiet, info, nil, nil)
}

func (a *App) cmdCommentInfo(ctx context.Context, args []string) error {
	f := a.newFlags("comment-info", true)
	pos, err := f.parse(args, 2, 2)
	if err != nil {
		return err
	}
	docID, err := docid.Extract(pos[0])
	if err != nil {
		return err
	}
	commentID := pos[1]

	info, err := a.preflight(ctx, docID, f.quiet)
	if err != nil {
		return err
	}

	c, err := a.backend.GetComment(ctx, docID, commentID)
	if err != nil {
		return err
	}
	var quote string
	if c.QuotedFileContent != nil {
		quote = c.QuotedFileContent.Value
	}

	switch a.mode() {
	case config.OutputJSON:
		if err := a.printJSON(map[string]any{"comment": c}); err != nil {
			return err
		}
	case config.OutputPlain:
		a.printRecords(
			"id", commentID,
			"status", commentStatus(c),
			"author", personName(c.Author),
			"created", c.CreatedTime,
			"content", firstLine(c.Content),
		)
		if quote != "" {
			a.printRecords("quote", firstLine(quote))
		}
		a.printf("replies\t%d\n", len(c.Replies))
	case config.OutputVerbose:
		a.printf("#%s [%s] %s %s\n", commentID, commentStatus(c), personName(c.Author), c.CreatedTime)
		a.printf("  \"%s\"\n", c.Content)
		if quote != "" {
			a.printf("  on \"%s\"\n", quote)
		}
		a.printf("  Modified: %s\n", c.ModifiedTime)
		for _, r := range c.Replies {
			switch {
			case r.Content != "":
				a.printf("  -> %s %s: \"%s\"\n", personName(r.Author), r.CreatedTime, r.Content)
			case r.Action != "":
				a.printf("  -> %s %s: [%s]\n", personName(r.Author), r.CreatedTime, r.Action)
			}
		}
	default:
		a.printf("#%s [%s] %s %s\n", commentID, commentStatus(c), personName(c.Author), day(c.CreatedTime))
		a.printf("  \"%s\"\n", c.Content)
		if n := len(c.Replies); n > 0 {
			a.printf("  %d %s\n", n, pluralize(n, "reply", "replies"))
		}
	}

	return a.finish(docID, "comment-info", f.quiet, info, nil, nil)
}

func (a *App) cmdComment(ctx context.Context, args []string) error {
	f := a.newFlags("comment", true)
	quote := f.String("quote", "", "anchor text the comment refers to")
	pos, err := f.parse(args, 2, 2)
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

	c, err := a.backend.CreateComment(ctx, docID, pos[1], *quote)
	if err != nil {
		return err
	}
	version, err := a.currentVersion(ctx, docID)
	if err != nil {
		return err
	}

	switch a.mode() {
	case config.OutputJSON:
		if err := a.printJSON(map[string]any{"id": c.Id, "status": "created"}); err != nil {
			return err
		}
	case config.OutputPlain:
		a.printRecords("id", c.Id)
	default:
		a.printf("OK comment #%s\n", c.Id)
	}

	return a.finish(docID, state.CmdComment, f.quiet, info, version, &state.CommentPatch{AddCommentID: c.Id})
}

func (a *App) cmdReply(ctx context.Context, args []string) error {
	f := a.newFlags("reply", true)
	pos, err := f.parse(args, 3, 3)
	if err != nil {
		return err
	}
	docID, err := docid.Extract(pos[0])
	if err != nil {
		return err
	}
	commentID := pos[1]

	info, err := a.preflight(ctx, docID, f.quiet)
	if err != nil {
		return err
	}

	r, err := a.backend.CreateReply(ctx, docID, commentID, pos[2], "")
	if err != nil {
		return err
	}
	version, err := a.currentVersion(ctx, docID)
	if err != nil {
		return err
	}

	switch a.mode() {
	case config.OutputJSON:
		if err := a.printJSON(map[string]any{"commentId": commentID, "replyId": r.Id, "status": "created"}); err != nil {
			return err
		}
	case config.OutputPlain:
		a.printRecords("commentId", commentID, "replyId", r.Id)
	default:
		a.printf("OK reply on #%s\n", commentID)
	}

	return a.finish(docID, state.CmdReply, f.quiet, info, version, &state.CommentPatch{AddCommentID: commentID})
}

func (a *App) cmdResolve(ctx context.Context, args []string) error {
	f := a.newFlags("resolve", true)
	message := f.String("m", "", "message to add while resolving")
	pos, err := f.parse(args, 2, 2)
	if err != nil {
		return err
	}
	return a.setResolved(ctx, f, pos, *message, remote.ActionResolve)
}

func (a *App) cmdReopen(ctx context.Context, args []string) error {
	f := a.newFlags("reopen", true)
	pos, err := f.parse(args, 2, 2)
	if err != nil {
		return err
	}
	return a.setResolved(ctx, f, pos, "", remote.ActionReopen)
}

// setResolved posts a resolve or reopen reply on a comment
func (a *App) setResolved(ctx context.Context, f *cmdFlags, pos []string, message, action string) error {
	docID, err := docid.Extract(pos[0])
	if err != nil {
		return err
	}
	commentID := pos[1]

	info, err := a.preflight(ctx, docID, f.quiet)
	if err != nil {
		return err
	}

	if _, err := a.backend.CreateReply(ctx, docID, commentID, message, action); err != nil {
		return err
	}
	version, err := a.currentVersion(ctx, docID)
	if err != nil {
		return err
	}

	command, status := state.CmdResolve, "resolved"
	patch := &state.CommentPatch{AddCommentID: commentID, AddResolvedID: commentID}
	if action == remote.ActionReopen {
		command, status = state.CmdReopen, "reopened"
		patch = &state.CommentPatch{AddCommentID: commentID, RemoveResolvedID: commentID}
	}

	switch a.mode() {
	case config.OutputJSON:
		if err := a.printJSON(map[string]any{"id": commentID, "status": status}); err != nil {
			return err
		}
	case config.OutputPlain:
		a.printRecords("id", commentID, "status", status)
	default:
		a.printf("OK %s comment #%s\n", status, commentID)
	}

	return a.finish(docID, command, f.quiet, info, version, patch)
}

func (a *App) cmdDeleteComment(ctx context.Context, args []string) error {
	f := a.newFlags("delete-comment", true)
	force := f.Bool("force", false, "do not ask for confirmation")
	pos, err := f.parse(args, 2, 2)
	if err != nil {
		return err
	}
	docID, err := docid.Extract(pos[0])
	if err != nil {
		return err
	}
	commentID := pos[1]

	if err := a.confirm("delete comment #"+commentID, *force); err != nil {
		return err
	}

	info, err := a.preflight(ctx, docID, f.quiet)
	if err != nil {
		return err
	}

	if err := a.backend.DeleteComment(ctx, docID, commentID); err != nil {
		return err
	}
	version, err := a.currentVersion(ctx, docID)
	if err != nil {
		return err
	}

	switch a.mode() {
	case config.OutputJSON:
		if err := a.printJSON(map[string]any{"id": commentID, "status": "deleted"}); err != nil {
			return err
		}
	case config.OutputPlain:
		a.printRecords("id", commentID, "status", "deleted")
	default:
		a.printf("OK deleted comment #%s\n", commentID)
	}

	return a.finish(docID, state.CmdDeleteComment, f.quiet, info, version, &state.CommentPatch{RemoveCommentID: commentID})
}

// confirm asks before a destructive action. Without a terminal the action
// needs force.
func (a *App) confirm(action string, force bool) error {
	if force {
		return nil
	}
	if !a.isTerminal() {
		return apperr.Validation("Refusing to %s without --force (non-interactive)", action)
	}

	a.warnf("%s [y/N]: ", action)
	answer, _ := a.stdin.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	}
	return apperr.Validation("Cancelled")
}
