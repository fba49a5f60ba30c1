package notify

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"google.golang.org/api/drive/v3"
)

const contentWidth = 60

// PrintBanner writes the pre-flight banner for info. lastSeen is the
// timestamp of the previous interaction, used for the "time ago" header.
func PrintBanner(w io.Writer, info *ChangeInfo, lastSeen string, now time.Time) {
	if info.IsFirstInteraction {
		printFirstInteraction(w, info)
		return
	}

	if !info.HasChanges() {
		fmt.Fprintln(w, "--- no changes ---")
		return
	}

	if ago := timeAgo(lastSeen, now); ago != "" {
		fmt.Fprintf(w, "--- since last interaction (%s) ---\n", ago)
	} else {
		fmt.Fprintln(w, "--- since last interaction ---")
	}

	if info.DocEdited {
		var versions string
		if info.OldVersion != nil && info.NewVersion != nil {
			versions = fmt.Sprintf(" (v%d → v%d)", *info.OldVersion, *info.NewVersion)
		}
		fmt.Fprintf(w, " ✎ doc edited by %s%s\n", info.Editor, versions)
	}

	for _, c := range info.NewComments {
		fmt.Fprintf(w, " \U0001f4ac new comment #%s by %s: \"%s\"\n", c.Id, personName(c.Author), truncate(c.Content))
	}

	for _, c := range info.NewReplies {
		if len(c.Replies) == 0 {
			continue
		}
		last := c.Replies[len(c.Replies)-1]
		fmt.Fprintf(w, " ↩ new reply on #%s by %s: \"%s\"\n", c.Id, personName(last.Author), truncate(last.Content))
	}

	for _, c := range info.NewlyResolved {
		fmt.Fprintf(w, " ✓ comment #%s resolved by %s\n", c.Id, actor(c, "resolve"))
	}

	for _, c := range info.NewlyReopened {
		fmt.Fprintf(w, " ↺ comment #%s reopened by %s\n", c.Id, actor(c, "reopen"))
	}

	fmt.Fprintln(w, "---")
}

func printFirstInteraction(w io.Writer, info *ChangeInfo) {
	fmt.Fprintln(w, "--- first interaction with this doc ---")

	modified := info.DocModified
	if len(modified) > 10 {
		modified = modified[:10]
	}
	fmt.Fprintf(w, " \U0001f4c4 \"%s\" by %s, last edited %s\n", info.DocTitle, info.DocOwner, modified)

	var parts []string
	if info.OpenCount > 0 {
		parts = append(parts, fmt.Sprintf("%d open %s", info.OpenCount, plural(info.OpenCount, "comment")))
	}
	if info.ResolvedCount > 0 {
		parts = append(parts, fmt.Sprintf("%d resolved", info.ResolvedCount))
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, " \U0001f4ac %s\n", strings.Join(parts, ", "))
	}

	fmt.Fprintln(w, "---")
}

// actor finds who performed the latest reply with the given action
func actor(c *drive.Comment, action string) string {
	for i := len(c.Replies) - 1; i >= 0; i-- {
		if r := c.Replies[i]; r.Action == action {
			if name := personName(r.Author); name != "" {
				return name
			}
			break
		}
	}
	return "unknown"
}

func truncate(s string) string {
	return runewidth.Truncate(s, contentWidth, "...")
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// timeAgo renders the age of an RFC 3339 timestamp, or "" when it cannot
// be parsed
func timeAgo(ts string, now time.Time) string {
	if ts == "" {
		return ""
	}
	then, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ""
	}

	seconds := int(now.Sub(then).Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%d sec ago", seconds)
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%d min ago", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%d hr ago", hours)
	}
	days := hours / 24
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
