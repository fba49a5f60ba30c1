package gdocs

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/davecgh/go-spew/spew"
	"github.com/pstuifzand/gdoc/internal/apperr"
	"github.com/pstuifzand/gdoc/internal/mdparse"
	"github.com/pstuifzand/gdoc/internal/remote"
	"google.golang.org/api/docs/v1"
)

// Replacer swaps located text for formatted markdown
type Replacer struct {
	backend remote.Backend
	debug   bool
}

// NewReplacer creates a replacer. With debug every submitted batch is
// dumped to the log.
func NewReplacer(backend remote.Backend, debug bool) *Replacer {
	return &Replacer{backend: backend, debug: debug}
}

// Replace replaces every span with newMarkdown and returns the number of
// replacements.
//
// The deletes and inserts for all spans go out as one batch guarded by
// revisionID, highest span first so lower spans keep their indexes. Stray
// empty heading paragraphs and tables are handled afterwards in separate
// batches; a failure there leaves the main replacement in place.
func (r *Replacer) Replace(ctx context.Context, docID string, spans []Span, newMarkdown, revisionID, tabID string) (int, error) {
	if len(spans) == 0 {
		return 0, nil
	}

	parsed := mdparse.Parse(newMarkdown)
	if err := validateSpans(spans, parsed); err != nil {
		return 0, err
	}

	insert := parsed
	if parsed.IsInline() {
		insert = parsed.Inline()
	}

	ordered := slices.Clone(spans)
	slices.SortFunc(ordered, func(a, b Span) int { return int(b.Start - a.Start) })

	insertLen := int64(mdparse.UTF16Len(insert.PlainText))
	delta := insertLen - ordered[0].Len()

	var requests []*docs.Request
	for _, s := range ordered {
		if s.Len() > 0 {
			requests = append(requests, &docs.Request{
				DeleteContentRange: &docs.DeleteContentRangeRequest{
					Range: &docs.Range{StartIndex: s.Start, EndIndex: s.End, TabId: tabID},
				},
			})
		}
		requests = append(requests, mdparse.BuildRequests(insert, s.Start, tabID)...)
	}

	if err := r.submit(ctx, docID, requests, revisionID); err != nil {
		return 0, err
	}

	// Inline content and plain deletion leave no paragraph behind
	if insert != parsed || insertLen == 0 {
		return len(spans), nil
	}

	if err := r.cleanupHeadings(ctx, docID, tabID, ordered, insertLen, delta); err != nil {
		return 0, fmt.Errorf("cleanup after replace: %w", err)
	}

	for i := len(parsed.Tables) - 1; i >= 0; i-- {
		table := parsed.Tables[i]
		for j, s := range ordered {
			at := s.Start + int64(table.PlainTextOffset) + shiftBelow(j, len(ordered), delta)
			if err := r.insertTable(ctx, docID, tabID, at, table); err != nil {
				return 0, fmt.Errorf("insert table: %w", err)
			}
		}
	}

	return len(spans), nil
}

// validateSpans rejects inputs the batch arithmetic cannot handle. Nothing
// has been sent when it fails.
func validateSpans(spans []Span, parsed *mdparse.ParsedMarkdown) error {
	if len(spans) > 1 && len(parsed.Tables) > 0 {
		return apperr.Validation("replacement with tables not supported with --all")
	}

	width := spans[0].Len()
	for _, s := range spans[1:] {
		if s.Len() != width {
			return apperr.Validation("matches differ in length (%d and %d); replace them one at a time", width, s.Len())
		}
	}

	ordered := slices.Clone(spans)
	slices.SortFunc(ordered, func(a, b Span) int { return int(a.Start - b.Start) })
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Start < ordered[i-1].End {
			return apperr.Validation("matches overlap at index %d", ordered[i].Start)
		}
	}
	return nil
}

// shiftBelow is the growth contributed by the spans below the j-th span of
// a descending list of n spans, all replaced in the same batch
func shiftBelow(j, n int, delta int64) int64 {
	return int64(n-1-j) * delta
}

// cleanupHeadings removes the empty paragraph that is left behind when the
// whole text of a heading is replaced by content ending in a newline. The
// heading style moves to the last inserted paragraph when that one still has
// the default style.
func (r *Replacer) cleanupHeadings(ctx context.Context, docID, tabID string, ordered []Span, insertLen, delta int64) error {
	doc, err := r.backend.GetDocument(ctx, docID, tabID != "")
	if err != nil {
		return err
	}
	paras := topLevelParagraphs(BodyFor(doc, tabID))

	var requests []*docs.Request
	for j, s := range ordered {
		pos := s.Start + insertLen + shiftBelow(j, len(ordered), delta)

		i := slices.IndexFunc(paras, func(p paragraph) bool { return p.start == pos })
		if i <= 0 {
			continue
		}
		empty, prev := paras[i], paras[i-1]
		if empty.text != "\n" || empty.style == "" || empty.style == mdparse.NormalText {
			continue
		}
		if prev.style != mdparse.NormalText || prev.end != pos {
			continue
		}

		requests = append(requests, &docs.Request{
			UpdateParagraphStyle: &docs.UpdateParagraphStyleRequest{
				Range:          &docs.Range{StartIndex: prev.start, EndIndex: prev.end, TabId: tabID},
				ParagraphStyle: &docs.ParagraphStyle{NamedStyleType: empty.style},
				Fields:         "namedStyleType",
			},
		})

		// The final newline of a body cannot be deleted
		del := &docs.Range{StartIndex: pos, EndIndex: pos + 1, TabId: tabID}
		if i == len(paras)-1 {
			del = &docs.Range{StartIndex: pos - 1, EndIndex: pos, TabId: tabID}
		}
		requests = append(requests, &docs.Request{
			DeleteContentRange: &docs.DeleteContentRangeRequest{Range: del},
		})
	}

	if len(requests) == 0 {
		return nil
	}
	return r.submit(ctx, docID, requests, "")
}

func (r *Replacer) submit(ctx context.Context, docID string, requests []*docs.Request, revisionID string) error {
	log.Printf("batchUpdate %s: %d requests (revision %q)", docID, len(requests), revisionID)
	if r.debug {
		log.Print(spew.Sdump(requests))
	}
	_, err := r.backend.BatchUpdate(ctx, docID, requests, revisionID)
	return err
}

// paragraph is a top-level paragraph reduced to what cleanup looks at
type paragraph struct {
	start, end int64
	style      string
	text       string
}

func topLevelParagraphs(body *docs.Body) []paragraph {
	if body == nil {
		return nil
	}
	var out []paragraph
	for _, el := range body.Content {
		if el.Paragraph == nil {
			continue
		}
		p := paragraph{start: el.StartIndex, end: el.EndIndex, text: ParagraphText(el.Paragraph)}
		if el.Paragraph.ParagraphStyle != nil {
			p.style = el.Paragraph.ParagraphStyle.NamedStyleType
		}
		out = append(out, p)
	}
	return out
}
