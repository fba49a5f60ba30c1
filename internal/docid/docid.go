// Package docid extracts Google document and folder ids from what users
// paste: full URLs or bare ids.
package docid

import (
	"regexp"
	"strings"

	"github.com/pstuifzand/gdoc/internal/apperr"
)

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`),
}

var bareID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Extract returns the id in s. Anything that is neither a recognised URL
// nor a bare id is a validation error.
func Extract(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Validation("Cannot extract document ID from empty string")
	}

	for _, re := range patterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1], nil
		}
	}

	if bareID.MatchString(s) {
		return s, nil
	}
	return "", apperr.Validation("Cannot extract document ID from: %s", s)
}
