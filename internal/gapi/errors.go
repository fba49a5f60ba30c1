package gapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pstuifzand/gdoc/internal/apperr"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

const exportReason = "Export only supports Docs Editors files"

// translate classifies an error returned by the Google client libraries.
// id names the document or file the call was about.
func translate(err error, id string) error {
	if err == nil {
		return nil
	}

	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		return apperr.Wrap(apperr.KindAuth, err, "Authentication expired. Run `gdoc auth`.")
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return apperr.Wrap(apperr.KindBackend, err, "API error: %v", err)
	}

	switch gerr.Code {
	case 401:
		return apperr.Wrap(apperr.KindAuth, err, "Authentication expired. Run `gdoc auth`.")
	case 403:
		if strings.Contains(reason(gerr), exportReason) {
			return apperr.Wrap(apperr.KindBackend, err, "Cannot export file as markdown: file is not a Google Docs editor document")
		}
		return apperr.Wrap(apperr.KindPermission, err, "Permission denied: %s", id)
	case 404:
		return apperr.Wrap(apperr.KindNotFound, err, "Document not found: %s", id)
	}
	return apperr.Wrap(apperr.KindBackend, err, "API error (%d): %s", gerr.Code, reason(gerr))
}

// translateBatch is translate for batch updates, where a failed revision
// precondition is reported as a bad request
func translateBatch(err error, id, requiredRevisionID string) error {
	var gerr *googleapi.Error
	if requiredRevisionID != "" && errors.As(err, &gerr) && gerr.Code == 400 &&
		strings.Contains(strings.ToLower(reason(gerr)), "revision") {
		return apperr.Wrap(apperr.KindConflict, err, "document changed during edit (required revision %s no longer current)", requiredRevisionID)
	}
	return translate(err, id)
}

func reason(gerr *googleapi.Error) string {
	parts := []string{gerr.Message}
	for _, item := range gerr.Errors {
		if item.Message != "" && item.Message != gerr.Message {
			parts = append(parts, item.Message)
		}
	}
	msg := strings.Join(parts, "; ")
	if msg == "" {
		return fmt.Sprintf("status %d", gerr.Code)
	}
	return msg
}
