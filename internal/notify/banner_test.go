package notify

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/drive/v3"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ts   string
		want string
	}{
		{"2025-06-10T11:59:30.000000Z", "30 sec ago"},
		{"2025-06-10T11:55:00.000000Z", "5 min ago"},
		{"2025-06-10T09:00:00.000000Z", "3 hr ago"},
		{"2025-06-09T10:00:00.000000Z", "1 day ago"},
		{"2025-06-01T12:00:00.000000Z", "9 days ago"},
		{"", ""},
		{"yesterday", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, timeAgo(tt.ts, now), tt.ts)
	}
}

func TestBannerTruncatesContent(t *testing.T) {
	info := &ChangeInfo{
		NewComments: []*drive.Comment{{
			Id:      "c1",
			Content: strings.Repeat("x", 80),
			Author:  &drive.User{DisplayName: "Dana"},
		}},
	}

	var out bytes.Buffer
	PrintBanner(&out, info, "", time.Now())

	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, "--- since last interaction ---", lines[0])
	assert.Equal(t, " \U0001f4ac new comment #c1 by Dana: \""+strings.Repeat("x", 57)+"...\"", lines[1])
}

func TestBannerSingularComment(t *testing.T) {
	var out bytes.Buffer
	PrintBanner(&out, &ChangeInfo{IsFirstInteraction: true, DocTitle: "T", OpenCount: 1}, "", time.Now())
	assert.Contains(t, out.String(), " \U0001f4ac 1 open comment\n")
}
