package gdocs

import (
	"strings"
	"testing"

	"github.com/pstuifzand/gdoc/internal/remote/remotetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindCaseSensitivity(t *testing.T) {
	body := remotetest.NewDoc("d", "r").Para("", "Hello World").Build().Body

	assert.Empty(t, FindText(body, "hello", true))

	spans := FindText(body, "hello", false)
	require.Len(t, spans, 1)
	assert.Equal(t, Span{Start: 1, End: 6}, spans[0])
}

func TestFindExhaustive(t *testing.T) {
	const n = 5
	hay := strings.Repeat("needle -- ", n)
	body := remotetest.NewDoc("d", "r").Para("", hay).Build().Body

	spans := FindText(body, "needle", true)
	require.Len(t, spans, n)
	for i, s := range spans {
		assert.Equal(t, int64(6), s.Len())
		if i > 0 {
			assert.Greater(t, s.Start, spans[i-1].Start)
		}
	}
}

func TestFindAcrossRunsAndParagraphs(t *testing.T) {
	body := remotetest.NewDoc("d", "r").
		Para("", "first ", "par", "agraph").
		Para("HEADING_1", "second").
		Build().Body

	spans := FindText(body, "paragraph", false)
	require.Len(t, spans, 1)
	assert.Equal(t, Span{Start: 7, End: 16}, spans[0])

	// The paragraph break is part of the stream
	spans = FindText(body, "paragraph\nsecond", false)
	require.Len(t, spans, 1)
	assert.Equal(t, Span{Start: 7, End: 23}, spans[0])
}

func TestFindUTF16Indexes(t *testing.T) {
	body := remotetest.NewDoc("d", "r").Para("", "😀 smile").Build().Body

	spans := FindText(body, "smile", true)
	require.Len(t, spans, 1)
	assert.Equal(t, Span{Start: 4, End: 9}, spans[0])

	spans = FindText(body, "😀", true)
	require.Len(t, spans, 1)
	assert.Equal(t, Span{Start: 1, End: 3}, spans[0])
}

func TestFindResumesAfterMatchStart(t *testing.T) {
	body := remotetest.NewDoc("d", "r").Para("", "aaa").Build().Body

	spans := FindText(body, "aa", true)
	assert.Equal(t, []Span{{Start: 1, End: 3}, {Start: 2, End: 4}}, spans)
}

func TestFindEmpty(t *testing.T) {
	assert.Empty(t, FindText(nil, "x", false))
	body := remotetest.NewDoc("d", "r").Para("", "text").Build().Body
	assert.Empty(t, FindText(body, "", false))
	assert.Empty(t, FindText(body, "missing", false))
}

func TestBodyText(t *testing.T) {
	doc := remotetest.NewDoc("d", "r").
		Para("HEADING_1", "Title").
		Table(1, 1).
		Para("", "a", "b").
		Build()

	assert.Equal(t, "Title\nab\n", BodyText(doc.Body))
	assert.Equal(t, "Title\nab\n", NewTextStream(doc.Body).Text())
}
