package annotate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/drive/v3"
)

func anchored(id, quote, content string) *drive.Comment {
	c := &drive.Comment{
		Id:      id,
		Content: content,
		Author:  &drive.User{EmailAddress: "alice@example.com"},
	}
	if quote != "" {
		c.QuotedFileContent = &drive.CommentQuotedFileContent{Value: quote}
	}
	return c
}

func TestNumbersLines(t *testing.T) {
	out := Markdown("# Title\n\nbody\n", nil, false)
	assert.Equal(t, "     1\t# Title\n     2\t\n     3\tbody\n", out)
}

func TestAnchoredCommentUnderLastLineOfAnchor(t *testing.T) {
	c := anchored("c1", "first line\nsecond", "spans two lines")
	c.Replies = []*drive.Reply{
		{Content: "agreed", Author: &drive.User{DisplayName: "Bob"}},
		{Action: "resolve"},
	}

	out := Markdown("first line\nsecond line\nthird\n", []*drive.Comment{c}, false)
	assert.Equal(t, ""+
		"     1\tfirst line\n"+
		"     2\tsecond line\n"+
		"      \t  [#c1 open] alice@example.com on \"first line\nsecond\":\n"+
		"      \t    \"spans two lines\"\n"+
		"      \t    > Bob: \"agreed\"\n"+
		"     3\tthird\n", out)
}

func TestUnanchoredSection(t *testing.T) {
	markdown := "alpha beta\nalpha beta\ngamma\n"
	comments := []*drive.Comment{
		anchored("c1", "", "general remark"),
		anchored("c2", "ab", "short"),
		anchored("c3", "missing text", "gone"),
		anchored("c4", "alpha beta", "twice"),
	}

	out := Markdown(markdown, comments, false)
	lines := strings.Split(out, "\n")
	assert.Equal(t, []string{
		"     1\talpha beta",
		"     2\talpha beta",
		"     3\tgamma",
		"      \t[UNANCHORED]",
		"      \t  [#c1 open] alice@example.com: \"general remark\"",
		"      \t  [#c2 open] [anchor too short] alice@example.com: \"short\"",
		"      \t  [#c3 open] [anchor deleted] alice@example.com: \"gone\"",
		"      \t  [#c4 open] [anchor ambiguous] alice@example.com: \"twice\"",
		"",
	}, lines)
}

func TestResolvedHiddenUnlessRequested(t *testing.T) {
	c := anchored("c1", "gamma", "done")
	c.Resolved = true

	out := Markdown("gamma\n", []*drive.Comment{c}, false)
	assert.NotContains(t, out, "#c1")

	out = Markdown("gamma\n", []*drive.Comment{c}, true)
	assert.Contains(t, out, "[#c1 resolved]")
}

func TestLongAnchorTruncated(t *testing.T) {
	anchor := strings.Repeat("word ", 12)
	out := Markdown(anchor+"\n", []*drive.Comment{anchored("c1", anchor, "x")}, false)
	assert.Contains(t, out, "on \""+anchor[:37]+"...\":")
}

func TestUnknownAuthor(t *testing.T) {
	c := anchored("c1", "", "anon")
	c.Author = nil
	out := Markdown("x\n", []*drive.Comment{c}, false)
	assert.Contains(t, out, "[#c1 open] unknown: \"anon\"")
}
