package diff

// DiffLineType indicates the type of diff line for rendering
type DiffLineType int

const (
	DiffTypeHeader DiffLineType = iota
	DiffTypeHunk
	DiffTypeContext
	DiffTypeAdded
	DiffTypeRemoved
)

// DiffLine represents one line of unified diff output
type DiffLine struct {
	Type    DiffLineType
	Content string
}

// Result is the comparison of the remote document with a local file
type Result struct {
	Unified string
	Lines   []DiffLine
	Added   int
	Removed int
}

// Identical reports whether both sides have the same text
func (r *Result) Identical() bool {
	return r.Unified == ""
}
