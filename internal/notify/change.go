// Package notify runs the pre-flight check that tells the user what changed
// on a document since gdoc last looked at it.
package notify

import (
	"github.com/pstuifzand/gdoc/internal/state"
	"google.golang.org/api/drive/v3"
)

// ChangeInfo is the result of one pre-flight check
type ChangeInfo struct {
	IsFirstInteraction bool

	// Only set on first interaction
	DocTitle      string
	DocOwner      string
	DocModified   string
	OpenCount     int
	ResolvedCount int

	DocEdited  bool
	Editor     string
	OldVersion *int64
	NewVersion *int64

	NewComments   []*drive.Comment
	NewReplies    []*drive.Comment
	NewlyResolved []*drive.Comment
	NewlyReopened []*drive.Comment

	// What the state update needs
	CurrentVersion     *int64
	PreflightTimestamp string
	AllCommentIDs      []string
	AllResolvedIDs     []string

	// LastReadVersion is carried over from state for conflict checks
	LastReadVersion *int64
}

// HasChanges reports whether anything happened since the last interaction
func (c *ChangeInfo) HasChanges() bool {
	return c.DocEdited ||
		len(c.NewComments) > 0 ||
		len(c.NewReplies) > 0 ||
		len(c.NewlyResolved) > 0 ||
		len(c.NewlyReopened) > 0
}

// HasConflict reports whether the document moved on since it was last read.
// It compares against the read baseline, not the last seen version, so a
// write between two reads does not count. No read baseline at all is a
// conflict; an unknown current version is not.
func (c *ChangeInfo) HasConflict() bool {
	if c.CurrentVersion == nil {
		return false
	}
	if c.LastReadVersion == nil {
		return true
	}
	return *c.CurrentVersion != *c.LastReadVersion
}

// Observation returns what the state store needs from this check
func (c *ChangeInfo) Observation() *state.Observation {
	return &state.Observation{
		CurrentVersion: c.CurrentVersion,
		Timestamp:      c.PreflightTimestamp,
		CommentIDs:     c.AllCommentIDs,
		ResolvedIDs:    c.AllResolvedIDs,
	}
}

// personName prefers the email address and falls back to the display name
func personName(u *drive.User) string {
	if u == nil {
		return ""
	}
	if u.EmailAddress != "" {
		return u.EmailAddress
	}
	return u.DisplayName
}

// editorName prefers the display name and falls back to the email address
func editorName(u *drive.User) string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.EmailAddress
}
