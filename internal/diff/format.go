package diff

import (
	"fmt"
	"strings"
)

// Summary returns the one-line change count shown in verbose output
func Summary(r *Result) string {
	if r.Identical() {
		return "identical"
	}
	return fmt.Sprintf("%d added, %d removed", r.Added, r.Removed)
}

// FormatPlain renders the changed lines as tab-separated records:
// "+" or "-" followed by the line text. Headers, hunks and context are left
// out.
func FormatPlain(r *Result) string {
	var sb strings.Builder
	for _, l := range r.Lines {
		switch l.Type {
		case DiffTypeAdded, DiffTypeRemoved:
			sb.WriteString(l.Content[:1])
			sb.WriteByte('\t')
			sb.WriteString(l.Content[1:])
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
