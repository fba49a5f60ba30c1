package state

import (
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Command names with a role in the update policy
const (
	CmdCat           = "cat"
	CmdInfo          = "info"
	CmdPull          = "pull"
	CmdEdit          = "edit"
	CmdWrite         = "write"
	CmdPush          = "push"
	CmdComment       = "comment"
	CmdReply         = "reply"
	CmdResolve       = "resolve"
	CmdReopen        = "reopen"
	CmdDeleteComment = "delete-comment"
	CmdNew           = "new"
	CmdCopy          = "cp"
)

// readCommands establish a read baseline
var readCommands = map[string]bool{
	CmdCat:  true,
	CmdInfo: true,
	CmdPull: true,
}

// infoCommands carry the version of the metadata they fetched themselves
var infoCommands = map[string]bool{
	CmdInfo: true,
	CmdPull: true,
}

// writeCommands report the version their mutation produced
var writeCommands = map[string]bool{
	CmdEdit:          true,
	CmdWrite:         true,
	CmdPush:          true,
	CmdComment:       true,
	CmdReply:         true,
	CmdResolve:       true,
	CmdReopen:        true,
	CmdDeleteComment: true,
	CmdNew:           true,
	CmdCopy:          true,
}

// IsRead reports whether command counts as reading the document
func IsRead(command string) bool {
	return readCommands[command]
}

// Observation is what a pre-flight saw, ready to be folded into state
type Observation struct {
	CurrentVersion *int64
	// Timestamp was taken before the comment listing was requested
	Timestamp   string
	CommentIDs  []string
	ResolvedIDs []string
}

// CommentPatch adjusts the known comment ids after a command that touched a
// single comment. Empty fields are ignored.
type CommentPatch struct {
	AddCommentID     string
	AddResolvedID    string
	RemoveResolvedID string
	RemoveCommentID  string
}

// Update describes a command that completed successfully
type Update struct {
	Command string
	Quiet   bool
	// Observation is nil when the pre-flight was skipped
	Observation *Observation
	// CommandVersion is the version the command itself obtained, if any
	CommandVersion *int64
	Patch          *CommentPatch
}

// Apply folds u into prev and returns the new state. prev may be nil and
// is not modified.
func Apply(prev *DocState, u Update, now time.Time) *DocState {
	st := &DocState{}
	if prev != nil {
		*st = *prev
		st.KnownCommentIDs = slices.Clone(prev.KnownCommentIDs)
		st.KnownResolvedIDs = slices.Clone(prev.KnownResolvedIDs)
	}

	st.LastSeen = FormatTime(now)

	switch {
	case u.Quiet:
		// Nothing was fetched, so only a version the command carried counts
		if infoCommands[u.Command] && u.CommandVersion != nil {
			st.LastVersion = cloneVersion(u.CommandVersion)
			st.LastReadVersion = cloneVersion(u.CommandVersion)
		}
	case u.Observation != nil:
		obs := u.Observation
		if obs.CurrentVersion != nil {
			st.LastVersion = cloneVersion(obs.CurrentVersion)
			if readCommands[u.Command] {
				st.LastReadVersion = cloneVersion(obs.CurrentVersion)
			}
		}
		st.LastCommentCheck = obs.Timestamp
		st.KnownCommentIDs = sortedIDs(mapset.NewThreadUnsafeSet(obs.CommentIDs...))
		st.KnownResolvedIDs = sortedIDs(mapset.NewThreadUnsafeSet(obs.ResolvedIDs...))

		if infoCommands[u.Command] && u.CommandVersion != nil {
			st.LastVersion = cloneVersion(u.CommandVersion)
			st.LastReadVersion = cloneVersion(u.CommandVersion)
		}
	}

	// A write is not a read: the baseline stays where it was
	if writeCommands[u.Command] && u.CommandVersion != nil {
		st.LastVersion = cloneVersion(u.CommandVersion)
	}

	if u.Patch != nil {
		applyPatch(st, *u.Patch)
	}

	if st.KnownCommentIDs == nil {
		st.KnownCommentIDs = []string{}
	}
	if st.KnownResolvedIDs == nil {
		st.KnownResolvedIDs = []string{}
	}
	return st
}

func applyPatch(st *DocState, p CommentPatch) {
	comments := mapset.NewThreadUnsafeSet(st.KnownCommentIDs...)
	resolved := mapset.NewThreadUnsafeSet(st.KnownResolvedIDs...)

	if p.AddCommentID != "" {
		comments.Add(p.AddCommentID)
	}
	if p.AddResolvedID != "" {
		comments.Add(p.AddResolvedID)
		resolved.Add(p.AddResolvedID)
	}
	if p.RemoveResolvedID != "" {
		resolved.Remove(p.RemoveResolvedID)
	}
	if p.RemoveCommentID != "" {
		comments.Remove(p.RemoveCommentID)
		resolved.Remove(p.RemoveCommentID)
	}

	st.KnownCommentIDs = sortedIDs(comments)
	st.KnownResolvedIDs = sortedIDs(resolved)
}

func sortedIDs(s mapset.Set[string]) []string {
	ids := s.ToSlice()
	slices.Sort(ids)
	return ids
}

func cloneVersion(v *int64) *int64 {
	c := *v
	return &c
}

// UpdateAfterCommand loads the state of docID, applies u and saves it
func (s *Store) UpdateAfterCommand(docID string, u Update) error {
	return s.Save(docID, Apply(s.Load(docID), u, time.Now()))
}
