package gdocs

import (
	"context"
	"testing"

	"github.com/pstuifzand/gdoc/internal/apperr"
	"github.com/pstuifzand/gdoc/internal/mdparse"
	"github.com/pstuifzand/gdoc/internal/remote/remotetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/docs/v1"
)

func newBackend(snapshots ...*docs.Document) *remotetest.Backend {
	b := remotetest.New()
	for _, d := range snapshots {
		b.AddDocument(d)
	}
	return b
}

func tableData(rows [][]string) mdparse.TableData {
	return mdparse.TableData{Rows: rows, NumRows: len(rows), NumCols: len(rows[0])}
}

func deletes(reqs []*docs.Request) []*docs.Range {
	var out []*docs.Range
	for _, r := range reqs {
		if r.DeleteContentRange != nil {
			out = append(out, r.DeleteContentRange.Range)
		}
	}
	return out
}

func TestReplaceHelloAndHello(t *testing.T) {
	doc := remotetest.NewDoc("doc1", "rev1").Para("", "hello and hello").Build()
	backend := newBackend(doc)

	spans := FindText(doc.Body, "HELLO", false)
	require.Equal(t, []Span{{Start: 1, End: 6}, {Start: 11, End: 16}}, spans)

	n, err := NewReplacer(backend, false).Replace(context.Background(), "doc1", spans, "hi", "rev1", "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// One guarded batch, no cleanup fetch for inline content
	assert.Equal(t, []string{"BatchUpdate"}, backend.Calls)
	require.Len(t, backend.Batches, 1)
	call := backend.Batches[0]
	assert.Equal(t, "rev1", call.RequiredRevisionID)

	reqs := call.Requests
	require.Len(t, reqs, 4)
	assert.Equal(t, int64(11), reqs[0].DeleteContentRange.Range.StartIndex)
	assert.Equal(t, int64(16), reqs[0].DeleteContentRange.Range.EndIndex)
	assert.Equal(t, int64(11), reqs[1].InsertText.Location.Index)
	assert.Equal(t, "hi", reqs[1].InsertText.Text)
	assert.Equal(t, int64(1), reqs[2].DeleteContentRange.Range.StartIndex)
	assert.Equal(t, int64(1), reqs[3].InsertText.Location.Index)
}

func TestReplaceDescendingOrder(t *testing.T) {
	backend := newBackend(remotetest.NewDoc("doc1", "").Para("", "0123456789012345678901234567890").Build())

	spans := []Span{{Start: 5, End: 10}, {Start: 20, End: 25}}
	_, err := NewReplacer(backend, false).Replace(context.Background(), "doc1", spans, "x", "", "")
	require.NoError(t, err)

	dels := deletes(backend.Batches[0].Requests)
	require.Len(t, dels, 2)
	assert.Equal(t, int64(20), dels[0].StartIndex)
	assert.Equal(t, int64(5), dels[1].StartIndex)
}

func TestReplaceValidation(t *testing.T) {
	tests := []struct {
		name     string
		spans    []Span
		markdown string
	}{
		{"table with several matches", []Span{{1, 3}, {5, 7}}, "| A |\n|---|\n| 1 |"},
		{"differing lengths", []Span{{1, 3}, {5, 8}}, "x"},
		{"overlap", []Span{{1, 4}, {2, 5}}, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newBackend(remotetest.NewDoc("doc1", "rev1").Para("", "abcdefghij").Build())

			n, err := NewReplacer(backend, false).Replace(context.Background(), "doc1", tt.spans, tt.markdown, "rev1", "")
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation))
			assert.Zero(t, n)
			assert.Empty(t, backend.Calls)
		})
	}
}

func TestReplaceNoSpans(t *testing.T) {
	backend := remotetest.New()
	n, err := NewReplacer(backend, false).Replace(context.Background(), "doc1", nil, "x", "rev1", "")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, backend.Calls)
}

func TestReplaceRevisionConflict(t *testing.T) {
	backend := newBackend(remotetest.NewDoc("doc1", "rev2").Para("", "hello").Build())

	_, err := NewReplacer(backend, false).Replace(context.Background(), "doc1", []Span{{1, 6}}, "hi", "rev1", "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Empty(t, backend.Batches)
}

func TestReplaceInlineKeepsParagraphStyle(t *testing.T) {
	backend := newBackend(remotetest.NewDoc("doc1", "rev1").Para("HEADING_2", "Old title").Build())

	_, err := NewReplacer(backend, false).Replace(context.Background(), "doc1", []Span{{1, 4}}, "**New**", "rev1", "")
	require.NoError(t, err)

	for _, r := range backend.Batches[0].Requests {
		assert.Nil(t, r.UpdateParagraphStyle)
		if r.InsertText != nil {
			assert.Equal(t, "New", r.InsertText.Text)
		}
	}
}

func TestReplaceTabTargeting(t *testing.T) {
	backend := newBackend(remotetest.NewDoc("doc1", "rev1").Para("", "hello").Build())

	_, err := NewReplacer(backend, false).Replace(context.Background(), "doc1", []Span{{1, 6}}, "- item", "rev1", "t.2")
	require.NoError(t, err)

	for _, r := range backend.Batches[0].Requests {
		switch {
		case r.DeleteContentRange != nil:
			assert.Equal(t, "t.2", r.DeleteContentRange.Range.TabId)
		case r.InsertText != nil:
			assert.Equal(t, "t.2", r.InsertText.Location.TabId)
		case r.CreateParagraphBullets != nil:
			assert.Equal(t, "t.2", r.CreateParagraphBullets.Range.TabId)
		}
	}
}

func TestReplaceMovesStrayHeadingStyle(t *testing.T) {
	// State after the main batch replaced the whole text of "Title" (7..12)
	// with two normal paragraphs
	after := remotetest.NewDoc("doc1", "rev1").
		Para("", "Intro").
		Para("", "New paragraph").
		Para("", "second").
		Para("HEADING_1").
		Para("", "End").
		Build()
	backend := newBackend(after)

	n, err := NewReplacer(backend, false).Replace(context.Background(), "doc1", []Span{{7, 12}}, "New paragraph\nsecond", "rev1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, backend.Batches, 2)
	cleanup := backend.Batches[1]
	assert.Empty(t, cleanup.RequiredRevisionID)
	require.Len(t, cleanup.Requests, 2)

	style := cleanup.Requests[0].UpdateParagraphStyle
	require.NotNil(t, style)
	assert.Equal(t, "HEADING_1", style.ParagraphStyle.NamedStyleType)
	assert.Equal(t, int64(21), style.Range.StartIndex)
	assert.Equal(t, int64(28), style.Range.EndIndex)

	del := cleanup.Requests[1].DeleteContentRange
	require.NotNil(t, del)
	assert.Equal(t, int64(28), del.Range.StartIndex)
	assert.Equal(t, int64(29), del.Range.EndIndex)
}

func TestReplaceStrayHeadingAtEndOfBody(t *testing.T) {
	after := remotetest.NewDoc("doc1", "rev1").
		Para("", "Intro").
		Para("", "a").
		Para("", "body").
		Para("HEADING_1").
		Build()
	backend := newBackend(after)

	_, err := NewReplacer(backend, false).Replace(context.Background(), "doc1", []Span{{7, 12}}, "a\nbody", "rev1", "")
	require.NoError(t, err)

	require.Len(t, backend.Batches, 2)
	del := backend.Batches[1].Requests[1].DeleteContentRange
	require.NotNil(t, del)
	assert.Equal(t, int64(13), del.Range.StartIndex)
	assert.Equal(t, int64(14), del.Range.EndIndex)
}

func TestReplaceCleanupShiftsLowerMatches(t *testing.T) {
	// Two "Tit" headings (7..10 and 15..18) replaced by two paragraphs,
	// three units longer than the match. The upper match moves by the
	// growth of the lower one.
	after := remotetest.NewDoc("doc1", "rev1").
		Para("", "Intro").
		Para("", "aa").
		Para("", "bb").
		Para("HEADING_1").
		Para("", "mid").
		Para("", "aa").
		Para("", "bb").
		Para("HEADING_1").
		Para("", "End").
		Build()
	backend := newBackend(after)

	n, err := NewReplacer(backend, false).Replace(context.Background(), "doc1", []Span{{7, 10}, {15, 18}}, "aa\nbb", "rev1", "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, backend.Batches, 2)
	reqs := backend.Batches[1].Requests
	require.Len(t, reqs, 4)

	upper := reqs[0].UpdateParagraphStyle
	require.NotNil(t, upper)
	assert.Equal(t, "HEADING_1", upper.ParagraphStyle.NamedStyleType)
	assert.Equal(t, []int64{21, 24}, []int64{upper.Range.StartIndex, upper.Range.EndIndex})
	del := reqs[1].DeleteContentRange.Range
	assert.Equal(t, []int64{24, 25}, []int64{del.StartIndex, del.EndIndex})

	lower := reqs[2].UpdateParagraphStyle
	require.NotNil(t, lower)
	assert.Equal(t, []int64{10, 13}, []int64{lower.Range.StartIndex, lower.Range.EndIndex})
	del = reqs[3].DeleteContentRange.Range
	assert.Equal(t, []int64{13, 14}, []int64{del.StartIndex, del.EndIndex})
}

func TestReplaceWithTable(t *testing.T) {
	afterText := remotetest.NewDoc("doc1", "rev1").Para("").Para("").Build()
	afterTable := remotetest.NewDoc("doc1", "rev1").Para("").Table(2, 2).Build()
	backend := newBackend(afterText, afterTable)

	n, err := NewReplacer(backend, false).Replace(context.Background(), "doc1", []Span{{1, 6}}, "| A | B |\n|---|---|\n| 1 | 2 |", "rev1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// main, table structure, cell contents
	require.Len(t, backend.Batches, 3)

	create := backend.Batches[1].Requests
	require.Len(t, create, 1)
	require.NotNil(t, create[0].InsertTable)
	assert.Equal(t, int64(1), create[0].InsertTable.Location.Index)
	assert.Equal(t, int64(2), create[0].InsertTable.Rows)
	assert.Equal(t, int64(2), create[0].InsertTable.Columns)

	fill := backend.Batches[2].Requests
	require.Len(t, fill, 6)
	var inserted []string
	var at []int64
	for _, r := range fill[:4] {
		inserted = append(inserted, r.InsertText.Text)
		at = append(at, r.InsertText.Location.Index)
	}
	assert.Equal(t, []string{"2", "1", "B", "A"}, inserted)
	assert.Equal(t, []int64{12, 10, 7, 5}, at)

	boldA, boldB := fill[4].UpdateTextStyle, fill[5].UpdateTextStyle
	assert.Equal(t, "bold", boldA.Fields)
	assert.Equal(t, int64(5), boldA.Range.StartIndex)
	assert.Equal(t, int64(6), boldA.Range.EndIndex)
	assert.Equal(t, int64(8), boldB.Range.StartIndex)
	assert.Equal(t, int64(9), boldB.Range.EndIndex)
}

func TestReplaceWithTwoTablesInsertsLastFirst(t *testing.T) {
	// Second table lands at 1+6, the first one at 1
	second := remotetest.NewDoc("doc1", "rev1").Para("").Para("", "Text").Table(2, 2).Build()
	first := remotetest.NewDoc("doc1", "rev1").Table(2, 1).Build()
	backend := newBackend(second, second, first)

	md := "| A |\n|---|\n| 1 |\nText\n| X | Y |\n|---|---|\n| 3 | 4 |"
	_, err := NewReplacer(backend, false).Replace(context.Background(), "doc1", []Span{{1, 6}}, md, "rev1", "")
	require.NoError(t, err)

	// main, then structure and cells for each table
	require.Len(t, backend.Batches, 5)

	create := backend.Batches[1].Requests[0].InsertTable
	require.NotNil(t, create)
	assert.Equal(t, int64(7), create.Location.Index)
	assert.Equal(t, int64(2), create.Columns)
	assert.Equal(t, "4", backend.Batches[2].Requests[0].InsertText.Text)

	create = backend.Batches[3].Requests[0].InsertTable
	require.NotNil(t, create)
	assert.Equal(t, int64(1), create.Location.Index)
	assert.Equal(t, int64(1), create.Columns)
	assert.Equal(t, "1", backend.Batches[4].Requests[0].InsertText.Text)
}

func TestReplaceTableNotFound(t *testing.T) {
	plain := remotetest.NewDoc("doc1", "rev1").Para("").Para("").Build()
	backend := newBackend(plain)

	_, err := NewReplacer(backend, false).Replace(context.Background(), "doc1", []Span{{1, 6}}, "| A |\n|---|\n| 1 |", "rev1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inserted table not found")
	// The main replacement stays committed
	assert.Len(t, backend.Batches, 2)
}

func TestFillTableRequestsSkipsEmptyCells(t *testing.T) {
	cells := [][]int64{{5, 7}, {10, 12}}
	table := tableData([][]string{{"", "H"}, {"x", ""}})

	reqs := fillTableRequests(cells, table, "")
	require.Len(t, reqs, 3)
	assert.Equal(t, "x", reqs[0].InsertText.Text)
	assert.Equal(t, "H", reqs[1].InsertText.Text)
	// No shift from the empty first header cell
	assert.Equal(t, int64(7), reqs[2].UpdateTextStyle.Range.StartIndex)
}
