// Package gdocs works on the structure of a fetched document: locating text,
// replacing it with formatted markdown and resolving tabs.
package gdocs

import (
	"strings"
	"unicode"
	"unicode/utf16"

	"google.golang.org/api/docs/v1"
)

// Span is a half-open range [Start, End) in document indexes
type Span struct {
	Start int64
	End   int64
}

// Len returns the length of the span in document index units
func (s Span) Len() int64 {
	return s.End - s.Start
}

// TextStream is the text of a body flattened across paragraphs and runs,
// with the document index of every character
type TextStream struct {
	runes   []rune
	offsets []int64
}

// NewTextStream walks the top-level paragraphs of body in order. Run
// boundaries are dropped, so text split across runs is contiguous.
func NewTextStream(body *docs.Body) *TextStream {
	s := &TextStream{}
	if body == nil {
		return s
	}
	for _, el := range body.Content {
		if el.Paragraph == nil {
			continue
		}
		for _, pe := range el.Paragraph.Elements {
			if pe.TextRun == nil {
				continue
			}
			idx := pe.StartIndex
			for _, r := range pe.TextRun.Content {
				s.runes = append(s.runes, r)
				s.offsets = append(s.offsets, idx)
				idx += int64(utf16.RuneLen(r))
			}
		}
	}
	return s
}

// Text returns the flattened text
func (s *TextStream) Text() string {
	return string(s.runes)
}

// Find returns every occurrence of needle, leftmost first. Scanning resumes
// one character after the start of each match. Without caseSensitive both
// sides are lower-cased rune by rune.
func (s *TextStream) Find(needle string, caseSensitive bool) []Span {
	if needle == "" || len(s.runes) == 0 {
		return nil
	}

	hay := s.runes
	pat := []rune(needle)
	if !caseSensitive {
		hay = lowerRunes(hay)
		pat = lowerRunes(pat)
	}

	var spans []Span
	for i := 0; i+len(pat) <= len(hay); i++ {
		if !hasPrefixAt(hay, pat, i) {
			continue
		}
		last := i + len(pat) - 1
		spans = append(spans, Span{
			Start: s.offsets[i],
			End:   s.offsets[last] + int64(utf16.RuneLen(s.runes[last])),
		})
	}
	return spans
}

// FindText locates needle in the top-level paragraphs of body
func FindText(body *docs.Body, needle string, caseSensitive bool) []Span {
	return NewTextStream(body).Find(needle, caseSensitive)
}

func hasPrefixAt(hay, pat []rune, i int) bool {
	for j, r := range pat {
		if hay[i+j] != r {
			return false
		}
	}
	return true
}

func lowerRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

// ParagraphText returns the text of a paragraph, newline included
func ParagraphText(p *docs.Paragraph) string {
	var b strings.Builder
	for _, pe := range p.Elements {
		if pe.TextRun != nil {
			b.WriteString(pe.TextRun.Content)
		}
	}
	return b.String()
}

// BodyText concatenates the text of the top-level paragraphs of body
func BodyText(body *docs.Body) string {
	if body == nil {
		return ""
	}
	var b strings.Builder
	for _, el := range body.Content {
		if el.Paragraph != nil {
			b.WriteString(ParagraphText(el.Paragraph))
		}
	}
	return b.String()
}
