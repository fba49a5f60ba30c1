package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pstuifzand/gdoc/internal/config"
	"google.golang.org/api/drive/v3"
)

func (a *App) mode() string {
	return a.cfg.OutputMode()
}

// printf writes to stdout
func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.stdout, args...)
}

// printJSON writes one JSON object with "ok": true and the given fields
func (a *App) printJSON(fields map[string]any) error {
	out := map[string]any{"ok": true}
	for k, v := range fields {
		out[k] = v
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	a.println(string(data))
	return nil
}

// printRecords writes key\tvalue lines, used by plain output
func (a *App) printRecords(pairs ...string) {
	for i := 0; i+1 < len(pairs); i += 2 {
		a.printf("%s\t%s\n", pairs[i], pairs[i+1])
	}
}

// warnf writes a diagnostic to stderr
func (a *App) warnf(format string, args ...any) {
	fmt.Fprintf(a.stderr, format, args...)
}

// truncateBytes cuts s to at most max bytes without splitting a UTF-8
// sequence. max <= 0 means no limit.
func truncateBytes(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	n := max
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// personName prefers the email address, then the display name
func personName(u *drive.User) string {
	if u == nil {
		return "unknown"
	}
	if u.EmailAddress != "" {
		return u.EmailAddress
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return "unknown"
}

// day trims an RFC 3339 timestamp to its date
func day(ts string) string {
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// isPlainOutput reports whether the session asked for plain output
func (a *App) isPlainOutput() bool {
	return a.mode() == config.OutputPlain
}

// firstLine is used when only a short form of free text fits on a line
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
