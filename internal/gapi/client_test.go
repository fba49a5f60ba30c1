package gapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pstuifzand/gdoc/internal/apperr"
	"github.com/pstuifzand/gdoc/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), srv.Client(), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func apiError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"code": status, "message": message},
	})
}

func TestGetDocumentNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		apiError(w, http.StatusNotFound, "Requested entity was not found.")
	})

	_, err := c.GetDocument(context.Background(), "doc1", true)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Equal(t, "Document not found: doc1", err.Error())
}

func TestBatchUpdateSendsWriteControl(t *testing.T) {
	var body docs.BatchUpdateDocumentRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "doc1:batchUpdate"), r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(data, &body))
		writeJSON(w, http.StatusOK, map[string]any{"documentId": "doc1"})
	})

	requests := []*docs.Request{{
		InsertText: &docs.InsertTextRequest{Text: "hi", Location: &docs.Location{Index: 1}},
	}}
	resp, err := c.BatchUpdate(context.Background(), "doc1", requests, "rev7")
	require.NoError(t, err)
	assert.Equal(t, "doc1", resp.DocumentId)

	require.NotNil(t, body.WriteControl)
	assert.Equal(t, "rev7", body.WriteControl.RequiredRevisionId)
	require.Len(t, body.Requests, 1)
	assert.Equal(t, "hi", body.Requests[0].InsertText.Text)
}

func TestBatchUpdateRevisionConflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		apiError(w, http.StatusBadRequest, "The required revision ID does not match the latest revision.")
	})

	_, err := c.BatchUpdate(context.Background(), "doc1", nil, "rev7")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestListCommentsPaginates(t *testing.T) {
	var queries []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "files/doc1/comments"), r.URL.Path)
		queries = append(queries, r.URL.RawQuery)

		if r.URL.Query().Get("pageToken") == "" {
			writeJSON(w, http.StatusOK, map[string]any{
				"nextPageToken": "p2",
				"comments": []map[string]any{
					{"id": "c1", "content": "one"},
					{"id": "c2", "content": "two", "resolved": true},
				},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"comments": []map[string]any{{"id": "c3", "content": "three"}},
		})
	})

	comments, err := c.ListComments(context.Background(), "doc1", remote.ListCommentsOptions{
		StartModifiedTime: "2025-01-01T00:00:00.000000Z",
		IncludeAnchor:     true,
	})
	require.NoError(t, err)

	var ids []string
	for _, cm := range comments {
		ids = append(ids, cm.Id)
	}
	assert.Equal(t, []string{"c1", "c3"}, ids)

	require.Len(t, queries, 2)
	assert.Contains(t, queries[0], "startModifiedTime=")
	assert.Contains(t, queries[0], "quotedFileContent")
}

func TestExportForbiddenForNonDocs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		apiError(w, http.StatusForbidden, "Export only supports Docs Editors files.")
	})

	_, err := c.Export(context.Background(), "pdf1", remote.MimeMarkdown)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a Google Docs editor document")
}

func TestExportReturnsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, remote.MimeMarkdown, r.URL.Query().Get("mimeType"))
		io.WriteString(w, "# Title\n")
	})

	content, err := c.Export(context.Background(), "doc1", remote.MimeMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n", content)
}
