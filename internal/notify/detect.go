package notify

import (
	"context"
	"io"
	"log"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pstuifzand/gdoc/internal/remote"
	"github.com/pstuifzand/gdoc/internal/state"
	"google.golang.org/api/drive/v3"
)

// Detector compares the remote document against the stored state
type Detector struct {
	backend remote.Backend
	store   *state.Store
	out     io.Writer
	now     func() time.Time
}

// NewDetector creates a detector that prints its banner to out
func NewDetector(backend remote.Backend, store *state.Store, out io.Writer) *Detector {
	return &Detector{
		backend: backend,
		store:   store,
		out:     out,
		now:     time.Now,
	}
}

// Run performs the pre-flight check for docID and prints the banner.
// In quiet mode nothing is fetched and the result is nil.
func (d *Detector) Run(ctx context.Context, docID string, quiet bool) (*ChangeInfo, error) {
	if quiet {
		return nil, nil
	}

	prev := d.store.Load(docID)

	// Taken before the listing so comments made during the call are seen next time
	timestamp := state.FormatTime(d.now())

	file, err := d.backend.FileVersion(ctx, docID)
	if err != nil {
		return nil, err
	}

	var watermark string
	if prev != nil {
		watermark = prev.LastCommentCheck
	}
	comments, err := d.backend.ListComments(ctx, docID, remote.ListCommentsOptions{
		StartModifiedTime: watermark,
		IncludeResolved:   true,
	})
	if err != nil {
		return nil, err
	}

	info := &ChangeInfo{
		CurrentVersion:     knownVersion(file.Version),
		PreflightTimestamp: timestamp,
	}
	if prev != nil {
		info.LastReadVersion = prev.LastReadVersion
	}

	if prev == nil {
		if err := d.firstInteraction(ctx, docID, file, comments, info); err != nil {
			return nil, err
		}
	} else {
		detectChanges(prev, file, comments, info)
	}

	log.Printf("pre-flight %s: version=%v first=%v changes=%v", docID, file.Version, info.IsFirstInteraction, info.HasChanges())

	var lastSeen string
	if prev != nil {
		lastSeen = prev.LastSeen
	}
	PrintBanner(d.out, info, lastSeen, d.now())
	return info, nil
}

func (d *Detector) firstInteraction(ctx context.Context, docID string, file *drive.File, comments []*drive.Comment, info *ChangeInfo) error {
	meta, err := d.backend.FileInfo(ctx, docID)
	if err != nil {
		return err
	}

	info.IsFirstInteraction = true
	info.DocModified = file.ModifiedTime
	info.DocTitle = meta.Name
	if len(meta.Owners) > 0 {
		info.DocOwner = personName(meta.Owners[0])
	}

	info.AllCommentIDs = []string{}
	info.AllResolvedIDs = []string{}
	for _, c := range comments {
		if c.Resolved {
			info.ResolvedCount++
		} else {
			info.OpenCount++
		}
		if c.Id == "" {
			continue
		}
		info.AllCommentIDs = append(info.AllCommentIDs, c.Id)
		if c.Resolved {
			info.AllResolvedIDs = append(info.AllResolvedIDs, c.Id)
		}
	}
	return nil
}

func detectChanges(prev *state.DocState, file *drive.File, comments []*drive.Comment, info *ChangeInfo) {
	if info.CurrentVersion != nil && prev.LastVersion != nil && *info.CurrentVersion != *prev.LastVersion {
		info.DocEdited = true
		info.Editor = editorName(file.LastModifyingUser)
		info.OldVersion = prev.LastVersion
		info.NewVersion = info.CurrentVersion
	}

	known := mapset.NewThreadUnsafeSet(prev.KnownCommentIDs...)
	knownResolved := mapset.NewThreadUnsafeSet(prev.KnownResolvedIDs...)
	all := known.Clone()
	allResolved := knownResolved.Clone()

	for _, c := range comments {
		if !known.Contains(c.Id) {
			info.NewComments = append(info.NewComments, c)
		} else {
			if hasNewReply(c, prev.LastCommentCheck) {
				info.NewReplies = append(info.NewReplies, c)
			}
			if c.Resolved && !knownResolved.Contains(c.Id) {
				info.NewlyResolved = append(info.NewlyResolved, c)
			} else if !c.Resolved && knownResolved.Contains(c.Id) {
				info.NewlyReopened = append(info.NewlyReopened, c)
			}
		}

		if c.Id == "" {
			continue
		}
		all.Add(c.Id)
		if c.Resolved {
			allResolved.Add(c.Id)
		} else {
			allResolved.Remove(c.Id)
		}
	}

	info.AllCommentIDs = sorted(all)
	info.AllResolvedIDs = sorted(allResolved)
}

// hasNewReply reports whether c has a conversational reply created after
// watermark. Resolve and reopen markers are not conversation.
func hasNewReply(c *drive.Comment, watermark string) bool {
	for _, r := range c.Replies {
		if r.Action == "" && after(r.CreatedTime, watermark) {
			return true
		}
	}
	return false
}

// after reports whether timestamp a is strictly later than b. Unparseable
// values fall back to comparing the strings.
func after(a, b string) bool {
	if b == "" {
		return a != ""
	}
	ta, errA := time.Parse(time.RFC3339Nano, a)
	tb, errB := time.Parse(time.RFC3339Nano, b)
	if errA != nil || errB != nil {
		return a > b
	}
	return ta.After(tb)
}

// knownVersion maps the zero value of an absent version field to nil
func knownVersion(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func sorted(s mapset.Set[string]) []string {
	ids := s.ToSlice()
	slices.Sort(ids)
	return ids
}
