// Package diff compares the exported text of a document with a local file.
package diff

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const contextLines = 3

// Compute returns the unified diff from remote to local. fromName and
// toName label the two sides in the header.
func Compute(remote, local, fromName, toName string) (*Result, error) {
	ud := difflib.UnifiedDiff{
		A:        splitLines(remote),
		B:        splitLines(local),
		FromFile: fromName,
		ToFile:   toName,
		Context:  contextLines,
	}

	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return nil, fmt.Errorf("failed to compute diff: %w", err)
	}

	result := &Result{Unified: text}
	result.Lines = classify(text)
	for _, l := range result.Lines {
		switch l.Type {
		case DiffTypeAdded:
			result.Added++
		case DiffTypeRemoved:
			result.Removed++
		}
	}
	return result, nil
}

// splitLines keeps line endings. A missing final newline is added so the
// last line prints on its own.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if last := lines[len(lines)-1]; last == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] = last + "\n"
	}
	return lines
}

// classify splits unified diff text into typed lines
func classify(text string) []DiffLine {
	if text == "" {
		return nil
	}

	var lines []DiffLine
	inHunk := false
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		var t DiffLineType
		switch {
		case strings.HasPrefix(line, "@@"):
			t = DiffTypeHunk
			inHunk = true
		case !inHunk:
			t = DiffTypeHeader
		case strings.HasPrefix(line, "+"):
			t = DiffTypeAdded
		case strings.HasPrefix(line, "-"):
			t = DiffTypeRemoved
		default:
			t = DiffTypeContext
		}
		lines = append(lines, DiffLine{Type: t, Content: line})
	}
	return lines
}
