package remotetest

import (
	"unicode/utf16"

	"google.golang.org/api/docs/v1"
)

// DocBuilder assembles a document body with realistic indexes. The body
// starts with a section break occupying index 0, so the first paragraph
// starts at 1.
type DocBuilder struct {
	doc  *docs.Document
	next int64
}

// NewDoc starts a document with the given id and revision
func NewDoc(id, revisionID string) *DocBuilder {
	return &DocBuilder{
		doc: &docs.Document{
			DocumentId: id,
			RevisionId: revisionID,
			Body: &docs.Body{Content: []*docs.StructuralElement{
				{EndIndex: 1, SectionBreak: &docs.SectionBreak{}},
			}},
		},
		next: 1,
	}
}

// Para appends a paragraph made of the given runs plus a terminating
// newline, styled with namedStyle (NORMAL_TEXT when empty)
func (b *DocBuilder) Para(namedStyle string, runs ...string) *DocBuilder {
	if namedStyle == "" {
		namedStyle = "NORMAL_TEXT"
	}
	if len(runs) == 0 {
		runs = []string{""}
	}
	runs[len(runs)-1] += "\n"

	start := b.next
	para := &docs.Paragraph{ParagraphStyle: &docs.ParagraphStyle{NamedStyleType: namedStyle}}
	for _, run := range runs {
		end := b.next + units(run)
		para.Elements = append(para.Elements, &docs.ParagraphElement{
			StartIndex: b.next,
			EndIndex:   end,
			TextRun:    &docs.TextRun{Content: run},
		})
		b.next = end
	}

	b.doc.Body.Content = append(b.doc.Body.Content, &docs.StructuralElement{
		StartIndex: start,
		EndIndex:   b.next,
		Paragraph:  para,
	})
	return b
}

// Table appends an empty rows x cols table. Each cell holds one empty
// paragraph.
func (b *DocBuilder) Table(rows, cols int) *DocBuilder {
	start := b.next
	table := &docs.Table{Rows: int64(rows), Columns: int64(cols)}
	idx := start + 1
	for r := 0; r < rows; r++ {
		row := &docs.TableRow{StartIndex: idx}
		idx++
		for c := 0; c < cols; c++ {
			cell := &docs.TableCell{StartIndex: idx}
			idx++
			cell.Content = []*docs.StructuralElement{{
				StartIndex: idx,
				EndIndex:   idx + 1,
				Paragraph: &docs.Paragraph{Elements: []*docs.ParagraphElement{{
					StartIndex: idx,
					EndIndex:   idx + 1,
					TextRun:    &docs.TextRun{Content: "\n"},
				}}},
			}}
			idx++
			cell.EndIndex = idx
			row.TableCells = append(row.TableCells, cell)
		}
		row.EndIndex = idx
		table.TableRows = append(table.TableRows, row)
	}
	b.next = idx

	b.doc.Body.Content = append(b.doc.Body.Content, &docs.StructuralElement{
		StartIndex: start,
		EndIndex:   b.next,
		Table:      table,
	})
	return b
}

// InlineObject appends a paragraph holding only the inline object id,
// registered with obj as its embedded object. Referencing an id again
// reuses the first registration.
func (b *DocBuilder) InlineObject(id string, obj *docs.EmbeddedObject) *DocBuilder {
	if b.doc.InlineObjects == nil {
		b.doc.InlineObjects = make(map[string]docs.InlineObject)
	}
	if _, ok := b.doc.InlineObjects[id]; !ok {
		b.doc.InlineObjects[id] = docs.InlineObject{
			ObjectId:               id,
			InlineObjectProperties: &docs.InlineObjectProperties{EmbeddedObject: obj},
		}
	}

	start := b.next
	b.doc.Body.Content = append(b.doc.Body.Content, &docs.StructuralElement{
		StartIndex: start,
		EndIndex:   start + 2,
		Paragraph: &docs.Paragraph{Elements: []*docs.ParagraphElement{
			{StartIndex: start, EndIndex: start + 1, InlineObjectElement: &docs.InlineObjectElement{InlineObjectId: id}},
			{StartIndex: start + 1, EndIndex: start + 2, TextRun: &docs.TextRun{Content: "\n"}},
		}},
	})
	b.next = start + 2
	return b
}

// PositionedObject anchors a positioned object to the last paragraph
func (b *DocBuilder) PositionedObject(id string, obj *docs.EmbeddedObject) *DocBuilder {
	if b.doc.PositionedObjects == nil {
		b.doc.PositionedObjects = make(map[string]docs.PositionedObject)
	}
	b.doc.PositionedObjects[id] = docs.PositionedObject{
		ObjectId:                   id,
		PositionedObjectProperties: &docs.PositionedObjectProperties{EmbeddedObject: obj},
	}
	content := b.doc.Body.Content
	if last := content[len(content)-1]; last.Paragraph != nil {
		last.Paragraph.PositionedObjectIds = append(last.Paragraph.PositionedObjectIds, id)
	}
	return b
}

// Build returns the document
func (b *DocBuilder) Build() *docs.Document {
	return b.doc
}

func size(w, h float64) *docs.Size {
	return &docs.Size{
		Width:  &docs.Dimension{Magnitude: w, Unit: "PT"},
		Height: &docs.Dimension{Magnitude: h, Unit: "PT"},
	}
}

// Image returns an embedded image of w x h points served at contentURI
func Image(title string, w, h float64, contentURI string) *docs.EmbeddedObject {
	return &docs.EmbeddedObject{
		Title:           title,
		Size:            size(w, h),
		ImageProperties: &docs.ImageProperties{ContentUri: contentURI},
	}
}

// Drawing returns an embedded drawing
func Drawing(w, h float64) *docs.EmbeddedObject {
	return &docs.EmbeddedObject{
		Size:                      size(w, h),
		EmbeddedDrawingProperties: &docs.EmbeddedDrawingProperties{},
	}
}

// Chart returns a chart linked from a spreadsheet
func Chart(title string, w, h float64, contentURI, spreadsheetID string, chartID int64) *docs.EmbeddedObject {
	obj := Image(title, w, h, contentURI)
	obj.LinkedContentReference = &docs.LinkedContentReference{
		SheetsChartReference: &docs.SheetsChartReference{SpreadsheetId: spreadsheetID, ChartId: chartID},
	}
	return obj
}

func units(s string) int64 {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return int64(n)
}
