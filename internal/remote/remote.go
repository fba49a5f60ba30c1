// Package remote defines the document service the rest of gdoc talks to.
//
// Payloads are the typed structs of the Docs v1 and Drive v3 client
// libraries. Implementations classify failures with apperr kinds.
package remote

import (
	"context"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
)

// Export MIME types
const (
	MimeMarkdown = "text/markdown"
	MimePlain    = "text/plain"
)

// Drive MIME types used for filtering and creation
const (
	MimeGoogleDoc   = "application/vnd.google-apps.document"
	MimeGoogleSheet = "application/vnd.google-apps.spreadsheet"
	MimeFolder      = "application/vnd.google-apps.folder"
)

// Reply actions
const (
	ActionResolve = "resolve"
	ActionReopen  = "reopen"
)

// ListCommentsOptions narrows a comment listing
type ListCommentsOptions struct {
	// StartModifiedTime limits results to comments modified after this
	// RFC 3339 timestamp. Empty lists the full history.
	StartModifiedTime string
	// IncludeResolved keeps resolved comments in the result
	IncludeResolved bool
	// IncludeAnchor requests the quoted anchor text of each comment
	IncludeAnchor bool
}

// Backend is the remote document service
type Backend interface {
	// GetDocument fetches the document structure. With includeTabs the
	// content of every tab is returned under Document.Tabs.
	GetDocument(ctx context.Context, docID string, includeTabs bool) (*docs.Document, error)

	// BatchUpdate applies requests in order as one atomic batch. A non-empty
	// requiredRevisionID makes the batch fail with a conflict when the
	// document has moved on.
	BatchUpdate(ctx context.Context, docID string, requests []*docs.Request, requiredRevisionID string) (*docs.BatchUpdateDocumentResponse, error)

	// Export returns the document rendered as mimeType
	Export(ctx context.Context, docID, mimeType string) (string, error)

	// FileVersion returns the lightweight version metadata of a file:
	// version, modifiedTime and lastModifyingUser
	FileVersion(ctx context.Context, docID string) (*drive.File, error)

	// FileInfo returns the full metadata of a file
	FileInfo(ctx context.Context, docID string) (*drive.File, error)

	ListComments(ctx context.Context, docID string, opts ListCommentsOptions) ([]*drive.Comment, error)
	GetComment(ctx context.Context, docID, commentID string) (*drive.Comment, error)

	// CreateComment adds a comment. A non-empty quote is stored as the
	// quoted anchor text.
	CreateComment(ctx context.Context, docID, content, quote string) (*drive.Comment, error)
	DeleteComment(ctx context.Context, docID, commentID string) error

	// CreateReply adds a reply to a comment. action is empty,
	// ActionResolve or ActionReopen.
	CreateReply(ctx context.Context, docID, commentID, content, action string) (*drive.Reply, error)

	// ListFiles returns every file matching a Drive query
	ListFiles(ctx context.Context, query string) ([]*drive.File, error)

	// UpdateContent replaces the document body with markdown and returns
	// the resulting version
	UpdateContent(ctx context.Context, docID, markdown string) (int64, error)

	// CreateDoc creates a document, optionally inside folderID and
	// optionally converted from markdown
	CreateDoc(ctx context.Context, title, folderID, markdown string) (*drive.File, error)
	CopyDoc(ctx context.Context, docID, title string) (*drive.File, error)

	// Share grants role to email on the file
	Share(ctx context.Context, docID, email, role string) error

	// DownloadImage returns the bytes behind the content URI of an
	// embedded image
	DownloadImage(ctx context.Context, uri string) ([]byte, error)
}
