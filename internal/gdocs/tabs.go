package gdocs

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pstuifzand/gdoc/internal/apperr"
	"google.golang.org/api/docs/v1"
)

// Tab is one document tab with its position in the tab tree
type Tab struct {
	ID           string
	Title        string
	Index        int64
	NestingLevel int
	Body         *docs.Body
}

// FlattenTabs lists tabs depth first, parents before their children
func FlattenTabs(tabs []*docs.Tab) []Tab {
	var out []Tab
	var walk func(tabs []*docs.Tab, level int)
	walk = func(tabs []*docs.Tab, level int) {
		for _, t := range tabs {
			tab := Tab{NestingLevel: level}
			if p := t.TabProperties; p != nil {
				tab.ID = p.TabId
				tab.Title = p.Title
				tab.Index = p.Index
			}
			if t.DocumentTab != nil {
				tab.Body = t.DocumentTab.Body
			}
			out = append(out, tab)
			walk(t.ChildTabs, level+1)
		}
	}
	walk(tabs, 0)
	return out
}

// maxSuggestions caps the alternatives offered for an unknown tab
const maxSuggestions = 3

// ResolveTab finds a tab by case-insensitive title, then by exact id
func ResolveTab(tabs []Tab, name string) (Tab, error) {
	for _, t := range tabs {
		if strings.EqualFold(t.Title, name) {
			return t, nil
		}
	}
	for _, t := range tabs {
		if t.ID == name {
			return t, nil
		}
	}

	if suggestions := suggestTabs(tabs, name); len(suggestions) > 0 {
		return Tab{}, apperr.Validation("tab not found: %s (did you mean: %s?)", name, strings.Join(suggestions, ", "))
	}
	return Tab{}, apperr.Validation("tab not found: %s", name)
}

// suggestTabs ranks tab titles against name. Subsequence matches come
// first, then titles within a small edit distance.
func suggestTabs(tabs []Tab, name string) []string {
	titles := make([]string, len(tabs))
	for i, t := range tabs {
		titles[i] = t.Title
	}

	ranks := fuzzy.RankFindFold(name, titles)
	sort.Sort(ranks)

	var out []string
	for _, r := range ranks {
		out = append(out, r.Target)
	}
	if len(out) == 0 {
		lower := strings.ToLower(name)
		for _, title := range titles {
			if fuzzy.LevenshteinDistance(lower, strings.ToLower(title)) <= 2 {
				out = append(out, title)
			}
		}
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// BodyFor returns the body addressed by tabID. An empty tabID selects the
// document body, falling back to the first tab when the document was
// fetched with tab content.
func BodyFor(doc *docs.Document, tabID string) *docs.Body {
	if tabID == "" {
		if doc.Body != nil || len(doc.Tabs) == 0 {
			return doc.Body
		}
		return FlattenTabs(doc.Tabs)[0].Body
	}
	for _, t := range FlattenTabs(doc.Tabs) {
		if t.ID == tabID {
			return t.Body
		}
	}
	return nil
}
