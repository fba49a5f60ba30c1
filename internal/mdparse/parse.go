// Package mdparse turns a small markdown dialect into plain text plus style
// annotations, and converts the result into Google Docs batchUpdate requests.
//
// All offsets are UTF-16 code units, the index unit of a Docs document, so a
// parsed offset can be shifted by an insertion index without conversion.
package mdparse

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf16"

	"github.com/dlclark/regexp2"
)

// Kind discriminates what a StyleRange applies to
type Kind int

const (
	TextStyle Kind = iota
	ParagraphStyle
	Bullets
)

func (k Kind) String() string {
	switch k {
	case TextStyle:
		return "text_style"
	case ParagraphStyle:
		return "paragraph_style"
	case Bullets:
		return "bullets"
	default:
		return "unknown"
	}
}

// NormalText is the default named paragraph style
const NormalText = "NORMAL_TEXT"

// Bullet presets
const (
	BulletDisc      = "BULLET_DISC_CIRCLE_SQUARE"
	NumberedDecimal = "NUMBERED_DECIMAL_ALPHA_ROMAN"
)

// MonospaceFont is the font family applied to inline code
const MonospaceFont = "Courier New"

// Style is the attribute set of one StyleRange. Only the fields that are set
// are sent to the remote service.
type Style struct {
	Bold         bool
	Italic       bool
	FontFamily   string
	LinkURL      string
	NamedStyle   string
	BulletPreset string
}

// StyleRange annotates the half-open span [Start, End) of the plain text
type StyleRange struct {
	Start int
	End   int
	Style Style
	Kind  Kind
}

// TableData is a rectangular table captured from pipe-table markdown.
// PlainTextOffset is the offset of the placeholder newline emitted in its place.
type TableData struct {
	Rows            [][]string
	NumRows         int
	NumCols         int
	PlainTextOffset int
}

// ParsedMarkdown is the result of Parse
type ParsedMarkdown struct {
	PlainText string
	Styles    []StyleRange
	Tables    []TableData
}

var (
	headingPattern   = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	bulletPattern    = regexp.MustCompile(`^[-*]\s+(.+)$`)
	numberedPattern  = regexp.MustCompile(`^\d+\.\s+(.+)$`)
	tableRowPattern  = regexp.MustCompile(`^\s*\|.*\|\s*$`)
	tableSepPattern  = regexp.MustCompile(`^\s*\|(\s*:?-+:?\s*\|)+\s*$`)
	headingStyleName = []string{"", "HEADING_1", "HEADING_2", "HEADING_3", "HEADING_4", "HEADING_5", "HEADING_6"}
)

// Parse converts markdown into plain text and style annotations.
// Handles headings, bullet and numbered lists, pipe tables, bold, italic,
// bold+italic, inline code and links.
func Parse(text string) *ParsedMarkdown {
	if text == "" {
		return &ParsedMarkdown{}
	}

	b := &builder{}
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); {
		if rows, next, ok := scanTable(lines, i); ok {
			b.addTable(rows)
			i = next
			continue
		}

		line := lines[i]
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			b.addParagraph(m[2], headingStyleName[len(m[1])], "")
		} else if m := bulletPattern.FindStringSubmatch(line); m != nil {
			b.addParagraph(m[1], NormalText, BulletDisc)
		} else if m := numberedPattern.FindStringSubmatch(line); m != nil {
			b.addParagraph(m[1], NormalText, NumberedDecimal)
		} else {
			b.addParagraph(line, NormalText, "")
		}
		i++
	}

	return &ParsedMarkdown{
		PlainText: b.text.String(),
		Styles:    b.styles,
		Tables:    b.tables,
	}
}

// builder accumulates plain text and annotations paragraph by paragraph
type builder struct {
	text   strings.Builder
	offset int
	styles []StyleRange
	tables []TableData
}

func (b *builder) addParagraph(content, namedStyle, bulletPreset string) {
	inline, inlineStyles := parseInline(content)

	start := b.offset
	b.text.WriteString(inline)
	b.offset += UTF16Len(inline)
	for _, s := range inlineStyles {
		s.Start += start
		s.End += start
		b.styles = append(b.styles, s)
	}

	b.text.WriteByte('\n')
	b.offset++

	b.styles = append(b.styles, StyleRange{
		Start: start,
		End:   b.offset,
		Style: Style{NamedStyle: namedStyle},
		Kind:  ParagraphStyle,
	})
	if bulletPreset != "" {
		b.styles = append(b.styles, StyleRange{
			Start: start,
			End:   b.offset,
			Style: Style{BulletPreset: bulletPreset},
			Kind:  Bullets,
		})
	}
}

func (b *builder) addTable(rows [][]string) {
	b.tables = append(b.tables, TableData{
		Rows:            rows,
		NumRows:         len(rows),
		NumCols:         len(rows[0]),
		PlainTextOffset: b.offset,
	})

	start := b.offset
	b.text.WriteByte('\n')
	b.offset++
	b.styles = append(b.styles, StyleRange{
		Start: start,
		End:   b.offset,
		Style: Style{NamedStyle: NormalText},
		Kind:  ParagraphStyle,
	})
}

// scanTable recognises a pipe table starting at lines[i]: a header row
// immediately followed by a separator row, then data rows until the first
// non-row line. Column count is fixed by the header.
func scanTable(lines []string, i int) (rows [][]string, next int, ok bool) {
	if i+1 >= len(lines) || !tableRowPattern.MatchString(lines[i]) || !tableSepPattern.MatchString(lines[i+1]) {
		return nil, i, false
	}

	header := splitRow(lines[i])
	cols := len(header)
	rows = [][]string{header}

	next = i + 2
	for next < len(lines) && tableRowPattern.MatchString(lines[next]) {
		rows = append(rows, fitRow(splitRow(lines[next]), cols))
		next++
	}
	return rows, next, true
}

func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// fitRow pads short rows with empty cells and truncates long ones
func fitRow(cells []string, cols int) []string {
	if len(cells) >= cols {
		return cells[:cols]
	}
	return append(cells, make([]string, cols-len(cells))...)
}

// Inline constructs in precedence order. Italic needs look-around, which is
// why these use regexp2 rather than RE2. Match offsets are rune indexes.
var inlineRules = []struct {
	re     *regexp2.Regexp
	styles func(m *regexp2.Match) (string, []Style)
}{
	{
		re: regexp2.MustCompile(`\*\*\*(.+?)\*\*\*`, regexp2.None),
		styles: func(m *regexp2.Match) (string, []Style) {
			return group(m, 1), []Style{{Bold: true}, {Italic: true}}
		},
	},
	{
		re: regexp2.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`, regexp2.None),
		styles: func(m *regexp2.Match) (string, []Style) {
			return firstGroup(m, 1, 2), []Style{{Bold: true}}
		},
	},
	{
		re: regexp2.MustCompile(`(?<!\*)\*(?!\*)(.+?)(?<!\*)\*(?!\*)|(?<!_)_(?!_)(.+?)(?<!_)_(?!_)`, regexp2.None),
		styles: func(m *regexp2.Match) (string, []Style) {
			return firstGroup(m, 1, 2), []Style{{Italic: true}}
		},
	},
	{
		re: regexp2.MustCompile("`([^`]+)`", regexp2.None),
		styles: func(m *regexp2.Match) (string, []Style) {
			return group(m, 1), []Style{{FontFamily: MonospaceFont}}
		},
	},
	{
		re: regexp2.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`, regexp2.None),
		styles: func(m *regexp2.Match) (string, []Style) {
			return group(m, 1), []Style{{LinkURL: group(m, 2)}}
		},
	},
}

// segment is a claimed inline construct, in rune offsets of the source line
type segment struct {
	start, end int
	text       string
	styles     []Style
}

// inlineScanner collects non-overlapping segments across all rules
type inlineScanner struct {
	segments []segment
}

func (s *inlineScanner) overlaps(start, end int) bool {
	for _, seg := range s.segments {
		if start < seg.end && end > seg.start {
			return true
		}
	}
	return false
}

func (s *inlineScanner) scan(line string) {
	for _, rule := range inlineRules {
		m, err := rule.re.FindStringMatch(line)
		for m != nil && err == nil {
			start, end := m.Index, m.Index+m.Length
			if !s.overlaps(start, end) {
				text, styles := rule.styles(m)
				s.segments = append(s.segments, segment{start: start, end: end, text: text, styles: styles})
			}
			m, err = rule.re.FindNextMatch(m)
		}
	}
	slices.SortFunc(s.segments, func(a, b segment) int { return a.start - b.start })
}

// parseInline strips inline delimiters from line and returns the plain text
// with text-style ranges relative to it
func parseInline(line string) (string, []StyleRange) {
	scanner := &inlineScanner{}
	scanner.scan(line)
	if len(scanner.segments) == 0 {
		return line, nil
	}

	runes := []rune(line)
	var (
		out    strings.Builder
		styles []StyleRange
		offset int
		prev   int
	)
	for _, seg := range scanner.segments {
		if seg.start > prev {
			literal := string(runes[prev:seg.start])
			out.WriteString(literal)
			offset += UTF16Len(literal)
		}

		start := offset
		out.WriteString(seg.text)
		offset += UTF16Len(seg.text)
		for _, st := range seg.styles {
			styles = append(styles, StyleRange{Start: start, End: offset, Style: st, Kind: TextStyle})
		}
		prev = seg.end
	}
	if prev < len(runes) {
		out.WriteString(string(runes[prev:]))
	}

	return out.String(), styles
}

func group(m *regexp2.Match, n int) string {
	g := m.GroupByNumber(n)
	if g == nil || len(g.Captures) == 0 {
		return ""
	}
	return g.String()
}

// firstGroup returns the first participating group among ns
func firstGroup(m *regexp2.Match, ns ...int) string {
	for _, n := range ns {
		if g := m.GroupByNumber(n); g != nil && len(g.Captures) > 0 {
			return g.String()
		}
	}
	return ""
}

// UTF16Len returns the length of s in UTF-16 code units
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
