package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pstuifzand/gdoc/internal/remote/remotetest"
	"github.com/pstuifzand/gdoc/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
)

var clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func v(n int64) *int64 {
	return &n
}

func setup(t *testing.T) (*remotetest.Backend, *state.Store, *bytes.Buffer, *Detector) {
	t.Helper()
	backend := remotetest.New()
	backend.AddFile(&drive.File{
		Id:                "doc1",
		Name:              "Plan",
		Version:           12,
		ModifiedTime:      "2025-05-30T10:00:00.000Z",
		Owners:            []*drive.User{{DisplayName: "Owner", EmailAddress: "owner@example.com"}},
		LastModifyingUser: &drive.User{DisplayName: "Editor Person", EmailAddress: "editor@example.com"},
	})
	store := state.NewStore(t.TempDir())
	var out bytes.Buffer
	d := NewDetector(backend, store, &out)
	d.now = func() time.Time { return clock }
	return backend, store, &out, d
}

func comment(id string, resolved bool, modified string, replies ...*drive.Reply) *drive.Comment {
	return &drive.Comment{
		Id:           id,
		Content:      "comment " + id,
		Author:       &drive.User{EmailAddress: "alice@example.com"},
		Resolved:     resolved,
		ModifiedTime: modified,
		Replies:      replies,
	}
}

func TestHasConflict(t *testing.T) {
	tests := []struct {
		name     string
		current  *int64
		lastRead *int64
		want     bool
	}{
		{"changed since read", v(10), v(8), true},
		{"unchanged", v(10), v(10), false},
		{"never read", v(10), nil, true},
		{"unknown version", nil, v(5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := &ChangeInfo{CurrentVersion: tt.current, LastReadVersion: tt.lastRead}
			assert.Equal(t, tt.want, info.HasConflict())
		})
	}
}

func TestQuietMakesNoCalls(t *testing.T) {
	backend, _, out, d := setup(t)

	info, err := d.Run(context.Background(), "doc1", true)
	require.NoError(t, err)
	assert.Nil(t, info)
	assert.Empty(t, backend.Calls)
	assert.Empty(t, out.String())
}

func TestFirstInteraction(t *testing.T) {
	backend, _, out, d := setup(t)
	backend.AddComment("doc1", comment("c1", false, "2025-01-01T00:00:00Z"))
	backend.AddComment("doc1", comment("c2", false, "2025-01-01T00:00:00Z"))
	backend.AddComment("doc1", comment("c3", true, "2025-01-01T00:00:00Z"))

	info, err := d.Run(context.Background(), "doc1", false)
	require.NoError(t, err)

	assert.True(t, info.IsFirstInteraction)
	assert.Equal(t, "Plan", info.DocTitle)
	assert.Equal(t, "owner@example.com", info.DocOwner)
	assert.Equal(t, 2, info.OpenCount)
	assert.Equal(t, 1, info.ResolvedCount)
	assert.Equal(t, []string{"c1", "c2", "c3"}, info.AllCommentIDs)
	assert.Equal(t, []string{"c3"}, info.AllResolvedIDs)
	assert.Equal(t, int64(12), *info.CurrentVersion)
	assert.Equal(t, "2025-06-01T12:00:00.000000Z", info.PreflightTimestamp)
	assert.Nil(t, info.LastReadVersion)
	assert.True(t, info.HasConflict())
	assert.Equal(t, []string{"FileVersion", "ListComments", "FileInfo"}, backend.Calls)

	assert.Equal(t, "--- first interaction with this doc ---\n"+
		" \U0001f4c4 \"Plan\" by owner@example.com, last edited 2025-05-30\n"+
		" \U0001f4ac 2 open comments, 1 resolved\n"+
		"---\n", out.String())
}

func TestFirstInteractionWithoutComments(t *testing.T) {
	_, _, out, d := setup(t)

	info, err := d.Run(context.Background(), "doc1", false)
	require.NoError(t, err)
	assert.Empty(t, info.AllCommentIDs)
	assert.NotContains(t, out.String(), "open comment")
}

func TestNoChanges(t *testing.T) {
	_, store, out, d := setup(t)
	require.NoError(t, store.Save("doc1", &state.DocState{
		LastSeen:         "2025-06-01T11:00:00.000000Z",
		LastVersion:      v(12),
		LastReadVersion:  v(12),
		LastCommentCheck: "2025-06-01T11:00:00.000000Z",
		KnownCommentIDs:  []string{"c1"},
		KnownResolvedIDs: []string{},
	}))

	info, err := d.Run(context.Background(), "doc1", false)
	require.NoError(t, err)
	assert.False(t, info.HasChanges())
	assert.False(t, info.HasConflict())
	assert.Equal(t, []string{"c1"}, info.AllCommentIDs)
	assert.Equal(t, "--- no changes ---\n", out.String())
}

func TestDetectChanges(t *testing.T) {
	backend, store, out, d := setup(t)
	watermark := "2025-06-01T11:00:00.000000Z"
	require.NoError(t, store.Save("doc1", &state.DocState{
		LastSeen:         "2025-06-01T10:00:00.000000Z",
		LastVersion:      v(10),
		LastReadVersion:  v(9),
		LastCommentCheck: watermark,
		KnownCommentIDs:  []string{"c1", "c2", "c3", "c4", "old"},
		KnownResolvedIDs: []string{"c3"},
	}))

	later := "2025-06-01T11:30:00Z"
	backend.AddComment("doc1", comment("old", false, "2025-05-01T00:00:00Z"))
	backend.AddComment("doc1", comment("c1", false, later,
		&drive.Reply{Content: "earlier", CreatedTime: "2025-06-01T10:00:00Z"},
		&drive.Reply{Content: "sounds good", CreatedTime: later, Author: &drive.User{DisplayName: "Bob"}},
	))
	backend.AddComment("doc1", comment("c2", true, later,
		&drive.Reply{Action: "resolve", CreatedTime: later, Author: &drive.User{EmailAddress: "carol@example.com"}},
	))
	backend.AddComment("doc1", comment("c3", false, later,
		&drive.Reply{Action: "reopen", CreatedTime: later},
	))
	backend.AddComment("doc1", comment("c9", false, later))

	info, err := d.Run(context.Background(), "doc1", false)
	require.NoError(t, err)

	assert.False(t, info.IsFirstInteraction)
	assert.True(t, info.DocEdited)
	assert.Equal(t, "Editor Person", info.Editor)
	assert.Equal(t, int64(10), *info.OldVersion)
	assert.Equal(t, int64(12), *info.NewVersion)
	assert.True(t, info.HasConflict())

	ids := func(cs []*drive.Comment) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.Id)
		}
		return out
	}
	assert.Equal(t, []string{"c9"}, ids(info.NewComments))
	assert.Equal(t, []string{"c1"}, ids(info.NewReplies))
	assert.Equal(t, []string{"c2"}, ids(info.NewlyResolved))
	assert.Equal(t, []string{"c3"}, ids(info.NewlyReopened))

	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c9", "old"}, info.AllCommentIDs)
	assert.Equal(t, []string{"c2"}, info.AllResolvedIDs)

	assert.Equal(t, "--- since last interaction (2 hr ago) ---\n"+
		" ✎ doc edited by Editor Person (v10 → v12)\n"+
		" \U0001f4ac new comment #c9 by alice@example.com: \"comment c9\"\n"+
		" ↩ new reply on #c1 by Bob: \"sounds good\"\n"+
		" ✓ comment #c2 resolved by carol@example.com\n"+
		" ↺ comment #c3 reopened by unknown\n"+
		"---\n", out.String())
}

func TestActionRepliesAreNotNewReplies(t *testing.T) {
	backend, store, _, d := setup(t)
	require.NoError(t, store.Save("doc1", &state.DocState{
		LastVersion:      v(12),
		LastCommentCheck: "2025-06-01T11:00:00.000000Z",
		KnownCommentIDs:  []string{"c1"},
	}))
	backend.AddComment("doc1", comment("c1", true, "2025-06-01T11:30:00Z",
		&drive.Reply{Action: "resolve", Content: "done", CreatedTime: "2025-06-01T11:30:00Z"},
	))

	info, err := d.Run(context.Background(), "doc1", false)
	require.NoError(t, err)
	assert.Empty(t, info.NewReplies)
	assert.Len(t, info.NewlyResolved, 1)
}

func TestUnknownVersionIsNotAnEdit(t *testing.T) {
	backend, store, _, d := setup(t)
	backend.Files["doc1"].Version = 0
	require.NoError(t, store.Save("doc1", &state.DocState{LastVersion: v(12), LastReadVersion: v(12)}))

	info, err := d.Run(context.Background(), "doc1", false)
	require.NoError(t, err)
	assert.Nil(t, info.CurrentVersion)
	assert.False(t, info.DocEdited)
	assert.False(t, info.HasConflict())
}

func TestBackendErrorPropagates(t *testing.T) {
	backend, _, out, d := setup(t)
	backend.Err["ListComments"] = errors.New("boom")

	_, err := d.Run(context.Background(), "doc1", false)
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestObservation(t *testing.T) {
	info := &ChangeInfo{
		CurrentVersion:     v(3),
		PreflightTimestamp: "ts",
		AllCommentIDs:      []string{"a"},
		AllResolvedIDs:     []string{},
	}
	obs := info.Observation()
	assert.Equal(t, int64(3), *obs.CurrentVersion)
	assert.Equal(t, "ts", obs.Timestamp)
	assert.Equal(t, []string{"a"}, obs.CommentIDs)
}

func TestPersonNames(t *testing.T) {
	both := &drive.User{DisplayName: "Ann", EmailAddress: "ann@example.com"}
	emailOnly := &drive.User{EmailAddress: "ann@example.com"}

	assert.Equal(t, "ann@example.com", personName(both))
	assert.Equal(t, "Ann", editorName(both))
	assert.Equal(t, "ann@example.com", editorName(emailOnly))
	assert.Equal(t, "", editorName(nil))
}
