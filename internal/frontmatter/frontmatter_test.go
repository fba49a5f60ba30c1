package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	meta, body := Parse("---\ngdoc: abc123\ntitle: My Doc\n---\n# Heading\n")
	assert.Equal(t, map[string]string{"gdoc": "abc123", "title": "My Doc"}, meta)
	assert.Equal(t, "# Heading\n", body)
}

func TestParseWithoutHeader(t *testing.T) {
	content := "# Just markdown\n---\nrule\n"
	meta, body := Parse(content)
	assert.Nil(t, meta)
	assert.Equal(t, content, body)
}

func TestParseUnterminated(t *testing.T) {
	content := "---\ngdoc: abc\nno end\n"
	meta, body := Parse(content)
	assert.Nil(t, meta)
	assert.Equal(t, content, body)
}

func TestParseFallsBackForInvalidYAML(t *testing.T) {
	meta, body := Parse("---\ngdoc: abc\ntitle: Notes: draft\n---\nbody")
	assert.Equal(t, "abc", meta["gdoc"])
	assert.Equal(t, "Notes: draft", meta["title"])
	assert.Equal(t, "body", body)
}

func TestParseScalars(t *testing.T) {
	meta, _ := Parse("---\nversion: 12\ntags: [a, b]\ndraft: true\n---\n")
	assert.Equal(t, "12", meta["version"])
	assert.Equal(t, "true", meta["draft"])
	assert.NotContains(t, meta, "tags")
}

func TestAdd(t *testing.T) {
	out, err := Add("# Body\n", Field{"gdoc", "abc123"}, Field{"title", "Plan"})
	require.NoError(t, err)
	assert.Equal(t, "---\ngdoc: abc123\ntitle: Plan\n---\n# Body\n", out)
}

func TestAddQuotesAndRoundTrips(t *testing.T) {
	out, err := Add("text", Field{"gdoc", "abc"}, Field{"title", "Q3: plan #2"})
	require.NoError(t, err)

	meta, body := Parse(out)
	assert.Equal(t, "Q3: plan #2", meta["title"])
	assert.Equal(t, "abc", meta["gdoc"])
	assert.Equal(t, "text", body)
}

func TestAddKeepsStringValues(t *testing.T) {
	out, err := Add("", Field{"title", "1e3"}, Field{"gdoc", "true"})
	require.NoError(t, err)

	meta, _ := Parse(out)
	assert.Equal(t, "1e3", meta["title"])
	assert.Equal(t, "true", meta["gdoc"])
}
