// Package gapi implements remote.Backend on top of the Google Docs v1 and
// Drive v3 APIs.
package gapi

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/pstuifzand/gdoc/internal/remote"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const pageSize = 100

const (
	commentFields = "id, content, author(displayName, emailAddress), resolved, createdTime, modifiedTime, " +
		"replies(id, author(displayName, emailAddress), createdTime, modifiedTime, content, action)"
	anchorField = "quotedFileContent(value), "
	fileFields  = "id, name, mimeType, modifiedTime, createdTime, version, webViewLink, parents, " +
		"owners(emailAddress, displayName), lastModifyingUser(emailAddress, displayName), size"
)

// Client talks to Google. It is built once per process and passed to
// whatever needs it.
type Client struct {
	docs  *docs.Service
	drive *drive.Service
	http  *http.Client
}

var _ remote.Backend = (*Client)(nil)

// NewClient creates services that authenticate with httpClient
func NewClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	docsService, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docs service: %w", err)
	}
	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Client{docs: docsService, drive: driveService, http: httpClient}, nil
}

func (c *Client) GetDocument(ctx context.Context, docID string, includeTabs bool) (*docs.Document, error) {
	doc, err := c.docs.Documents.Get(docID).IncludeTabsContent(includeTabs).Context(ctx).Do()
	if err != nil {
		return nil, translate(err, docID)
	}
	return doc, nil
}

func (c *Client) BatchUpdate(ctx context.Context, docID string, requests []*docs.Request, requiredRevisionID string) (*docs.BatchUpdateDocumentResponse, error) {
	req := &docs.BatchUpdateDocumentRequest{Requests: requests}
	if requiredRevisionID != "" {
		req.WriteControl = &docs.WriteControl{RequiredRevisionId: requiredRevisionID}
	}
	resp, err := c.docs.Documents.BatchUpdate(docID, req).Context(ctx).Do()
	if err != nil {
		return nil, translateBatch(err, docID, requiredRevisionID)
	}
	return resp, nil
}

func (c *Client) Export(ctx context.Context, docID, mimeType string) (string, error) {
	resp, err := c.drive.Files.Export(docID, mimeType).Context(ctx).Download()
	if err != nil {
		return "", translate(err, docID)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", translate(err, docID)
	}
	return string(data), nil
}

func (c *Client) FileVersion(ctx context.Context, docID string) (*drive.File, error) {
	f, err := c.drive.Files.Get(docID).
		Fields("id, version, modifiedTime, lastModifyingUser(displayName, emailAddress)").
		Context(ctx).Do()
	if err != nil {
		return nil, translate(err, docID)
	}
	return f, nil
}

func (c *Client) FileInfo(ctx context.Context, docID string) (*drive.File, error) {
	f, err := c.drive.Files.Get(docID).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, translate(err, docID)
	}
	return f, nil
}

func (c *Client) ListComments(ctx context.Context, docID string, opts remote.ListCommentsOptions) ([]*drive.Comment, error) {
	fields := commentFields
	if opts.IncludeAnchor {
		fields = strings.Replace(commentFields, "modifiedTime, ", "modifiedTime, "+anchorField, 1)
	}

	call := c.drive.Comments.List(docID).
		IncludeDeleted(false).
		PageSize(pageSize).
		Fields(googleapi.Field("nextPageToken, comments(" + fields + ")"))
	if opts.StartModifiedTime != "" {
		call = call.StartModifiedTime(opts.StartModifiedTime)
	}

	var comments []*drive.Comment
	err := call.Pages(ctx, func(page *drive.CommentList) error {
		for _, cm := range page.Comments {
			if !opts.IncludeResolved && cm.Resolved {
				continue
			}
			comments = append(comments, cm)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, docID)
	}
	return comments, nil
}

func (c *Client) GetComment(ctx context.Context, docID, commentID string) (*drive.Comment, error) {
	cm, err := c.drive.Comments.Get(docID, commentID).
		Fields(googleapi.Field(anchorField + commentFields)).
		Context(ctx).Do()
	if err != nil {
		return nil, translate(err, docID)
	}
	return cm, nil
}

func (c *Client) CreateComment(ctx context.Context, docID, content, quote string) (*drive.Comment, error) {
	body := &drive.Comment{Content: content}
	if quote != "" {
		body.QuotedFileContent = &drive.CommentQuotedFileContent{MimeType: remote.MimePlain, Value: quote}
	}
	cm, err := c.drive.Comments.Create(docID, body).
		Fields("id, content, author(displayName, emailAddress), createdTime, resolved").
		Context(ctx).Do()
	if err != nil {
		return nil, translate(err, docID)
	}
	return cm, nil
}

func (c *Client) DeleteComment(ctx context.Context, docID, commentID string) error {
	return translate(c.drive.Comments.Delete(docID, commentID).Context(ctx).Do(), docID)
}

func (c *Client) CreateReply(ctx context.Context, docID, commentID, content, action string) (*drive.Reply, error) {
	r, err := c.drive.Replies.Create(docID, commentID, &drive.Reply{Content: content, Action: action}).
		Fields("id, content, action, author(displayName, emailAddress), createdTime").
		Context(ctx).Do()
	if err != nil {
		return nil, translate(err, docID)
	}
	return r, nil
}

func (c *Client) ListFiles(ctx context.Context, query string) ([]*drive.File, error) {
	log.Printf("drive query: %s", query)

	var files []*drive.File
	err := c.drive.Files.List().
		Q(query).
		PageSize(pageSize).
		Fields("nextPageToken, files(id, name, mimeType, modifiedTime)").
		Pages(ctx, func(page *drive.FileList) error {
			files = append(files, page.Files...)
			return nil
		})
	if err != nil {
		return nil, translate(err, "")
	}
	return files, nil
}

func (c *Client) UpdateContent(ctx context.Context, docID, markdown string) (int64, error) {
	f, err := c.drive.Files.Update(docID, &drive.File{}).
		Media(strings.NewReader(markdown), googleapi.ContentType(remote.MimeMarkdown)).
		Fields("id, version").
		Context(ctx).Do()
	if err != nil {
		return 0, translate(err, docID)
	}
	return f.Version, nil
}

func (c *Client) CreateDoc(ctx context.Context, title, folderID, markdown string) (*drive.File, error) {
	meta := &drive.File{Name: title, MimeType: remote.MimeGoogleDoc}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}

	call := c.drive.Files.Create(meta).Fields("id, name, webViewLink, version")
	if markdown != "" {
		call = call.Media(strings.NewReader(markdown), googleapi.ContentType(remote.MimeMarkdown))
	}
	f, err := call.Context(ctx).Do()
	if err != nil {
		return nil, translate(err, folderID)
	}
	return f, nil
}

func (c *Client) CopyDoc(ctx context.Context, docID, title string) (*drive.File, error) {
	f, err := c.drive.Files.Copy(docID, &drive.File{Name: title}).
		Fields("id, name, webViewLink, version").
		Context(ctx).Do()
	if err != nil {
		return nil, translate(err, docID)
	}
	return f, nil
}

func (c *Client) Share(ctx context.Context, docID, email, role string) error {
	_, err := c.drive.Permissions.Create(docID, &drive.Permission{
		Type:         "user",
		Role:         role,
		EmailAddress: email,
	}).Context(ctx).Do()
	return translate(err, docID)
}

// DownloadImage fetches the content URI of an embedded image. The URI is
// short-lived and only valid for the account that read the document.
func (c *Client) DownloadImage(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid image URI: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, translate(err, uri)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, translate(err, uri)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, translate(err, uri)
	}
	return data, nil
}
