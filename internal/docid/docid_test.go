package docid

import (
	"testing"

	"github.com/pstuifzand/gdoc/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://docs.google.com/document/d/1aBc-_9/edit", "1aBc-_9"},
		{"https://docs.google.com/document/d/1aBc/edit?tab=t.0", "1aBc"},
		{"https://drive.google.com/open?id=XYZ_1", "XYZ_1"},
		{"https://drive.google.com/file?usp=x&id=abc", "abc"},
		{"https://drive.google.com/drive/folders/F0lder", "F0lder"},
		{"1aBcDeFgHiJkLmNoPqRsTuVwXyZ", "1aBcDeFgHiJkLmNoPqRsTuVwXyZ"},
		{"  padded  ", "padded"},
	}

	for _, tt := range tests {
		got, err := Extract(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestExtractInvalid(t *testing.T) {
	for _, in := range []string{"", "   ", "not an id", "https://example.com/page"} {
		_, err := Extract(in)
		require.Error(t, err, in)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation), in)
		assert.Equal(t, 3, apperr.ExitCode(err))
	}
}
