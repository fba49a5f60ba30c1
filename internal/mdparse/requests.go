package mdparse

import (
	"strings"

	"google.golang.org/api/docs/v1"
)

// BuildRequests converts parsed markdown into batchUpdate requests that insert
// the text at insertAt and then style it. Order: insertText, text styles,
// paragraph styles, bullets. A non-empty tabID targets that document tab.
// Tables are not included; they need a round trip to discover cell indexes.
func BuildRequests(parsed *ParsedMarkdown, insertAt int64, tabID string) []*docs.Request {
	if parsed == nil || parsed.PlainText == "" {
		return nil
	}

	requests := []*docs.Request{{
		InsertText: &docs.InsertTextRequest{
			Location: &docs.Location{Index: insertAt, TabId: tabID},
			Text:     parsed.PlainText,
		},
	}}

	for _, sr := range parsed.Styles {
		if sr.Kind != TextStyle {
			continue
		}
		textStyle, fields := textStyleFor(sr.Style)
		if fields == "" {
			continue
		}
		requests = append(requests, &docs.Request{
			UpdateTextStyle: &docs.UpdateTextStyleRequest{
				Range:     shiftedRange(sr, insertAt, tabID),
				TextStyle: textStyle,
				Fields:    fields,
			},
		})
	}

	for _, sr := range parsed.Styles {
		if sr.Kind != ParagraphStyle {
			continue
		}
		requests = append(requests, &docs.Request{
			UpdateParagraphStyle: &docs.UpdateParagraphStyleRequest{
				Range:          shiftedRange(sr, insertAt, tabID),
				ParagraphStyle: &docs.ParagraphStyle{NamedStyleType: sr.Style.NamedStyle},
				Fields:         "namedStyleType",
			},
		})
	}

	for _, sr := range parsed.Styles {
		if sr.Kind != Bullets {
			continue
		}
		requests = append(requests, &docs.Request{
			CreateParagraphBullets: &docs.CreateParagraphBulletsRequest{
				Range:        shiftedRange(sr, insertAt, tabID),
				BulletPreset: sr.Style.BulletPreset,
			},
		})
	}

	return requests
}

func shiftedRange(sr StyleRange, insertAt int64, tabID string) *docs.Range {
	return &docs.Range{
		StartIndex: int64(sr.Start) + insertAt,
		EndIndex:   int64(sr.End) + insertAt,
		TabId:      tabID,
	}
}

// textStyleFor returns the docs text style for s and a field mask naming
// exactly the attributes that are set
func textStyleFor(s Style) (*docs.TextStyle, string) {
	ts := &docs.TextStyle{}
	var fields []string
	if s.Bold {
		ts.Bold = true
		fields = append(fields, "bold")
	}
	if s.Italic {
		ts.Italic = true
		fields = append(fields, "italic")
	}
	if s.FontFamily != "" {
		ts.WeightedFontFamily = &docs.WeightedFontFamily{FontFamily: s.FontFamily}
		fields = append(fields, "weightedFontFamily")
	}
	if s.LinkURL != "" {
		ts.Link = &docs.Link{Url: s.LinkURL}
		fields = append(fields, "link")
	}
	return ts, strings.Join(fields, ",")
}

// IsInline reports whether the markdown is a single plain paragraph: no
// heading, list item or table. Such content can replace text in the middle
// of an existing paragraph.
func (p *ParsedMarkdown) IsInline() bool {
	if len(p.Tables) > 0 || strings.Count(p.PlainText, "\n") != 1 {
		return false
	}
	for _, sr := range p.Styles {
		switch sr.Kind {
		case Bullets:
			return false
		case ParagraphStyle:
			if sr.Style.NamedStyle != NormalText {
				return false
			}
		}
	}
	return true
}

// Inline returns a copy without the paragraph terminator and without the
// paragraph-level style, so that inserting it leaves the surrounding
// paragraph's style alone. Only meaningful when IsInline is true.
func (p *ParsedMarkdown) Inline() *ParsedMarkdown {
	text := strings.TrimSuffix(p.PlainText, "\n")
	limit := UTF16Len(text)

	out := &ParsedMarkdown{PlainText: text}
	for _, sr := range p.Styles {
		if sr.Kind != TextStyle {
			continue
		}
		sr.End = min(sr.End, limit)
		if sr.Start < sr.End {
			out.Styles = append(out.Styles, sr)
		}
	}
	return out
}
