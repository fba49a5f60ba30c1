// Package annotate renders a document with line numbers and its comments
// placed under the lines they are anchored to.
package annotate

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"google.golang.org/api/drive/v3"
)

const (
	gutter      = "      \t"
	anchorWidth = 40
	minAnchor   = 4
)

// Reasons a comment with an anchor is listed as unanchored
const (
	noteTooShort  = "anchor too short"
	noteDeleted   = "anchor deleted"
	noteAmbiguous = "anchor ambiguous"
)

type placed struct {
	comment *drive.Comment
	anchor  string
}

type unplaced struct {
	comment *drive.Comment
	note    string
}

// Markdown numbers every line of markdown and interleaves comments. A
// comment goes under the line where its quoted anchor ends; comments whose
// anchor is missing, short, gone or found more than once are collected in
// an [UNANCHORED] section. Resolved comments are dropped unless
// showResolved is set.
func Markdown(markdown string, comments []*drive.Comment, showResolved bool) string {
	lines := strings.Split(markdown, "\n")
	if strings.HasSuffix(markdown, "\n") {
		lines = lines[:len(lines)-1]
	}

	byLine := make(map[int][]placed)
	var rest []unplaced

	for _, c := range comments {
		if c.Resolved && !showResolved {
			continue
		}

		if c.QuotedFileContent == nil || c.QuotedFileContent.Value == "" {
			rest = append(rest, unplaced{comment: c})
			continue
		}
		anchor := c.QuotedFileContent.Value

		if len([]rune(strings.TrimSpace(anchor))) < minAnchor {
			rest = append(rest, unplaced{comment: c, note: noteTooShort})
			continue
		}

		pos := strings.Index(markdown, anchor)
		if pos < 0 {
			rest = append(rest, unplaced{comment: c, note: noteDeleted})
			continue
		}
		if strings.Contains(markdown[pos+1:], anchor) {
			rest = append(rest, unplaced{comment: c, note: noteAmbiguous})
			continue
		}

		line := strings.Count(markdown[:pos+len(anchor)], "\n")
		if line >= len(lines) {
			line = max(len(lines)-1, 0)
		}
		byLine[line] = append(byLine[line], placed{comment: c, anchor: anchor})
	}

	var sb strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&sb, "%6d\t%s\n", i+1, line)
		for _, p := range byLine[i] {
			writeAnchored(&sb, p.comment, p.anchor)
		}
	}

	if len(rest) > 0 {
		sb.WriteString(gutter + "[UNANCHORED]\n")
		for _, u := range rest {
			writeUnanchored(&sb, u.comment, u.note)
		}
	}
	return sb.String()
}

func writeAnchored(sb *strings.Builder, c *drive.Comment, anchor string) {
	display := runewidth.Truncate(anchor, anchorWidth, "...")
	fmt.Fprintf(sb, "%s  %s %s on \"%s\":\n", gutter, status(c, ""), author(c.Author), display)
	fmt.Fprintf(sb, "%s    \"%s\"\n", gutter, c.Content)
	writeReplies(sb, c)
}

func writeUnanchored(sb *strings.Builder, c *drive.Comment, note string) {
	fmt.Fprintf(sb, "%s  %s %s: \"%s\"\n", gutter, status(c, note), author(c.Author), c.Content)
	writeReplies(sb, c)
}

func writeReplies(sb *strings.Builder, c *drive.Comment) {
	for _, r := range c.Replies {
		// resolve and reopen markers carry no text
		if r.Content == "" {
			continue
		}
		fmt.Fprintf(sb, "%s    > %s: \"%s\"\n", gutter, author(r.Author), r.Content)
	}
}

func status(c *drive.Comment, note string) string {
	state := "open"
	if c.Resolved {
		state = "resolved"
	}
	s := fmt.Sprintf("[#%s %s]", c.Id, state)
	if note != "" {
		s += " [" + note + "]"
	}
	return s
}

func author(u *drive.User) string {
	switch {
	case u == nil:
		return "unknown"
	case u.EmailAddress != "":
		return u.EmailAddress
	case u.DisplayName != "":
		return u.DisplayName
	}
	return "unknown"
}
