// Package remotetest provides an in-memory remote.Backend for tests.
package remotetest

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/pstuifzand/gdoc/internal/apperr"
	"github.com/pstuifzand/gdoc/internal/remote"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
)

// BatchCall is one recorded BatchUpdate
type BatchCall struct {
	DocID              string
	Requests           []*docs.Request
	RequiredRevisionID string
}

// Permission is one recorded Share
type Permission struct {
	DocID string
	Email string
	Role  string
}

// Backend keeps documents, files and comments in memory and records every
// call. Errors registered in Err under a method name are returned by that
// method after the call is recorded.
type Backend struct {
	// Documents holds snapshots per document id. GetDocument serves them in
	// order and keeps returning the last one.
	Documents map[string][]*docs.Document
	Files     map[string]*drive.File
	Exports   map[string]string
	Comments  map[string][]*drive.Comment
	Listing   []*drive.File
	Err       map[string]error

	// Images maps content URIs to what DownloadImage returns
	Images map[string][]byte

	Calls       []string
	Batches     []BatchCall
	Queries     []string
	Uploads     map[string]string
	Permissions []Permission

	nextID int
}

var _ remote.Backend = (*Backend)(nil)

// New returns an empty backend
func New() *Backend {
	return &Backend{
		Documents: make(map[string][]*docs.Document),
		Files:     make(map[string]*drive.File),
		Exports:   make(map[string]string),
		Comments:  make(map[string][]*drive.Comment),
		Images:    make(map[string][]byte),
		Err:       make(map[string]error),
		Uploads:   make(map[string]string),
	}
}

// AddDocument queues a document snapshot
func (b *Backend) AddDocument(doc *docs.Document) {
	b.Documents[doc.DocumentId] = append(b.Documents[doc.DocumentId], doc)
}

// AddFile registers file metadata
func (b *Backend) AddFile(f *drive.File) {
	b.Files[f.Id] = f
}

// SetExport sets what Export returns for a document and MIME type
func (b *Backend) SetExport(docID, mimeType, content string) {
	b.Exports[exportKey(docID, mimeType)] = content
}

// AddComment registers a comment on a document
func (b *Backend) AddComment(docID string, c *drive.Comment) {
	b.Comments[docID] = append(b.Comments[docID], c)
}

// Called reports whether method was called at least once
func (b *Backend) Called(method string) bool {
	return slices.Contains(b.Calls, method)
}

func exportKey(docID, mimeType string) string {
	return docID + "|" + mimeType
}

func (b *Backend) record(method string) error {
	b.Calls = append(b.Calls, method)
	return b.Err[method]
}

func (b *Backend) newID(prefix string) string {
	b.nextID++
	return fmt.Sprintf("%s%d", prefix, b.nextID)
}

func notFound(docID string) error {
	return apperr.New(apperr.KindNotFound, "Document not found: %s", docID)
}

func (b *Backend) GetDocument(ctx context.Context, docID string, includeTabs bool) (*docs.Document, error) {
	if err := b.record("GetDocument"); err != nil {
		return nil, err
	}
	snaps := b.Documents[docID]
	if len(snaps) == 0 {
		return nil, notFound(docID)
	}
	doc := snaps[0]
	if len(snaps) > 1 {
		b.Documents[docID] = snaps[1:]
	}
	return doc, nil
}

func (b *Backend) BatchUpdate(ctx context.Context, docID string, requests []*docs.Request, requiredRevisionID string) (*docs.BatchUpdateDocumentResponse, error) {
	if err := b.record("BatchUpdate"); err != nil {
		return nil, err
	}
	if snaps := b.Documents[docID]; requiredRevisionID != "" && len(snaps) > 0 {
		if current := snaps[0].RevisionId; current != "" && current != requiredRevisionID {
			return nil, apperr.Conflict("document revision %s does not match required %s", current, requiredRevisionID)
		}
	}
	b.Batches = append(b.Batches, BatchCall{DocID: docID, Requests: requests, RequiredRevisionID: requiredRevisionID})
	if f, ok := b.Files[docID]; ok {
		f.Version++
	}
	return &docs.BatchUpdateDocumentResponse{DocumentId: docID}, nil
}

func (b *Backend) Export(ctx context.Context, docID, mimeType string) (string, error) {
	if err := b.record("Export"); err != nil {
		return "", err
	}
	content, ok := b.Exports[exportKey(docID, mimeType)]
	if !ok {
		return "", notFound(docID)
	}
	return content, nil
}

func (b *Backend) FileVersion(ctx context.Context, docID string) (*drive.File, error) {
	if err := b.record("FileVersion"); err != nil {
		return nil, err
	}
	f, ok := b.Files[docID]
	if !ok {
		return nil, notFound(docID)
	}
	return &drive.File{
		Id:                f.Id,
		Version:           f.Version,
		ModifiedTime:      f.ModifiedTime,
		LastModifyingUser: f.LastModifyingUser,
	}, nil
}

func (b *Backend) FileInfo(ctx context.Context, docID string) (*drive.File, error) {
	if err := b.record("FileInfo"); err != nil {
		return nil, err
	}
	f, ok := b.Files[docID]
	if !ok {
		return nil, notFound(docID)
	}
	return f, nil
}

func (b *Backend) ListComments(ctx context.Context, docID string, opts remote.ListCommentsOptions) ([]*drive.Comment, error) {
	if err := b.record("ListComments"); err != nil {
		return nil, err
	}
	var out []*drive.Comment
	for _, c := range b.Comments[docID] {
		if opts.StartModifiedTime != "" && c.ModifiedTime <= opts.StartModifiedTime {
			continue
		}
		if !opts.IncludeResolved && c.Resolved {
			continue
		}
		if !opts.IncludeAnchor && c.QuotedFileContent != nil {
			stripped := *c
			stripped.QuotedFileContent = nil
			c = &stripped
		}
		out = append(out, c)
	}
	return out, nil
}

func (b *Backend) GetComment(ctx context.Context, docID, commentID string) (*drive.Comment, error) {
	if err := b.record("GetComment"); err != nil {
		return nil, err
	}
	c := b.findComment(docID, commentID)
	if c == nil {
		return nil, apperr.New(apperr.KindNotFound, "Comment not found: %s", commentID)
	}
	return c, nil
}

func (b *Backend) findComment(docID, commentID string) *drive.Comment {
	for _, c := range b.Comments[docID] {
		if c.Id == commentID {
			return c
		}
	}
	return nil
}

func (b *Backend) CreateComment(ctx context.Context, docID, content, quote string) (*drive.Comment, error) {
	if err := b.record("CreateComment"); err != nil {
		return nil, err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	c := &drive.Comment{
		Id:           b.newID("c"),
		Content:      content,
		CreatedTime:  now,
		ModifiedTime: now,
	}
	if quote != "" {
		c.QuotedFileContent = &drive.CommentQuotedFileContent{Value: quote}
	}
	b.AddComment(docID, c)
	return c, nil
}

func (b *Backend) DeleteComment(ctx context.Context, docID, commentID string) error {
	if err := b.record("DeleteComment"); err != nil {
		return err
	}
	comments := b.Comments[docID]
	i := slices.IndexFunc(comments, func(c *drive.Comment) bool { return c.Id == commentID })
	if i < 0 {
		return apperr.New(apperr.KindNotFound, "Comment not found: %s", commentID)
	}
	b.Comments[docID] = slices.Delete(comments, i, i+1)
	return nil
}

func (b *Backend) CreateReply(ctx context.Context, docID, commentID, content, action string) (*drive.Reply, error) {
	if err := b.record("CreateReply"); err != nil {
		return nil, err
	}
	c := b.findComment(docID, commentID)
	if c == nil {
		return nil, apperr.New(apperr.KindNotFound, "Comment not found: %s", commentID)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	r := &drive.Reply{
		Id:          b.newID("r"),
		Content:     content,
		Action:      action,
		CreatedTime: now,
	}
	c.Replies = append(c.Replies, r)
	c.ModifiedTime = now
	switch action {
	case remote.ActionResolve:
		c.Resolved = true
	case remote.ActionReopen:
		c.Resolved = false
	}
	return r, nil
}

func (b *Backend) ListFiles(ctx context.Context, query string) ([]*drive.File, error) {
	if err := b.record("ListFiles"); err != nil {
		return nil, err
	}
	b.Queries = append(b.Queries, query)
	return b.Listing, nil
}

func (b *Backend) UpdateContent(ctx context.Context, docID, markdown string) (int64, error) {
	if err := b.record("UpdateContent"); err != nil {
		return 0, err
	}
	f, ok := b.Files[docID]
	if !ok {
		return 0, notFound(docID)
	}
	b.Uploads[docID] = markdown
	f.Version++
	return f.Version, nil
}

func (b *Backend) CreateDoc(ctx context.Context, title, folderID, markdown string) (*drive.File, error) {
	if err := b.record("CreateDoc"); err != nil {
		return nil, err
	}
	f := &drive.File{
		Id:          b.newID("file"),
		Name:        title,
		MimeType:    remote.MimeGoogleDoc,
		Version:     1,
		WebViewLink: "https://docs.google.com/document/d/new/edit",
	}
	if folderID != "" {
		f.Parents = []string{folderID}
	}
	if markdown != "" {
		b.Uploads[f.Id] = markdown
	}
	b.AddFile(f)
	return f, nil
}

func (b *Backend) CopyDoc(ctx context.Context, docID, title string) (*drive.File, error) {
	if err := b.record("CopyDoc"); err != nil {
		return nil, err
	}
	if _, ok := b.Files[docID]; !ok {
		return nil, notFound(docID)
	}
	f := &drive.File{
		Id:       b.newID("file"),
		Name:     title,
		MimeType: remote.MimeGoogleDoc,
		Version:  1,
	}
	b.AddFile(f)
	return f, nil
}

func (b *Backend) Share(ctx context.Context, docID, email, role string) error {
	if err := b.record("Share"); err != nil {
		return err
	}
	b.Permissions = append(b.Permissions, Permission{DocID: docID, Email: email, Role: role})
	return nil
}

func (b *Backend) DownloadImage(ctx context.Context, uri string) ([]byte, error) {
	if err := b.record("DownloadImage"); err != nil {
		return nil, err
	}
	data, ok := b.Images[uri]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "Image not found: %s", uri)
	}
	return data, nil
}
