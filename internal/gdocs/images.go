package gdocs

import (
	"google.golang.org/api/docs/v1"
)

// Embedded object kinds
const (
	ObjectImage   = "image"
	ObjectChart   = "chart"
	ObjectDrawing = "drawing"
)

// Image is an embedded object of a document: an image, a linked chart or
// a drawing. Only images and charts have content to download.
type Image struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	WidthPt       float64 `json:"width_pt"`
	HeightPt      float64 `json:"height_pt"`
	ContentURI    string  `json:"content_uri,omitempty"`
	SourceURI     string  `json:"source_uri,omitempty"`
	StartIndex    int64   `json:"start_index"`
	SpreadsheetID string  `json:"spreadsheet_id,omitempty"`
	ChartID       int64   `json:"chart_id,omitempty"`
}

// ListImages returns the inline and positioned objects of doc in the order
// the body references them. An object referenced twice is listed once.
func ListImages(doc *docs.Document) []Image {
	var out []Image
	seen := make(map[string]bool)

	add := func(id string, index int64, obj *docs.EmbeddedObject) {
		if seen[id] || obj == nil {
			return
		}
		seen[id] = true
		out = append(out, newImage(id, index, obj))
	}

	var walk func(content []*docs.StructuralElement)
	walk = func(content []*docs.StructuralElement) {
		for _, el := range content {
			switch {
			case el.Paragraph != nil:
				for _, pe := range el.Paragraph.Elements {
					if pe.InlineObjectElement == nil {
						continue
					}
					id := pe.InlineObjectElement.InlineObjectId
					if o, ok := doc.InlineObjects[id]; ok && o.InlineObjectProperties != nil {
						add(id, pe.StartIndex, o.InlineObjectProperties.EmbeddedObject)
					}
				}
				for _, id := range el.Paragraph.PositionedObjectIds {
					if o, ok := doc.PositionedObjects[id]; ok && o.PositionedObjectProperties != nil {
						add(id, el.StartIndex, o.PositionedObjectProperties.EmbeddedObject)
					}
				}
			case el.Table != nil:
				for _, row := range el.Table.TableRows {
					for _, cell := range row.TableCells {
						walk(cell.Content)
					}
				}
			}
		}
	}
	if doc.Body != nil {
		walk(doc.Body.Content)
	}
	return out
}

func newImage(id string, index int64, obj *docs.EmbeddedObject) Image {
	img := Image{
		ID:          id,
		Type:        ObjectImage,
		Title:       obj.Title,
		Description: obj.Description,
		StartIndex:  index,
	}
	if s := obj.Size; s != nil {
		if s.Width != nil {
			img.WidthPt = s.Width.Magnitude
		}
		if s.Height != nil {
			img.HeightPt = s.Height.Magnitude
		}
	}
	if p := obj.ImageProperties; p != nil {
		img.ContentURI = p.ContentUri
		img.SourceURI = p.SourceUri
	}

	switch {
	case obj.EmbeddedDrawingProperties != nil:
		img.Type = ObjectDrawing
		img.ContentURI = ""
	case obj.LinkedContentReference != nil && obj.LinkedContentReference.SheetsChartReference != nil:
		img.Type = ObjectChart
		img.SpreadsheetID = obj.LinkedContentReference.SheetsChartReference.SpreadsheetId
		img.ChartID = obj.LinkedContentReference.SheetsChartReference.ChartId
	}
	return img
}

// FindImage returns the object with the given id
func FindImage(images []Image, id string) (Image, bool) {
	for _, img := range images {
		if img.ID == id {
			return img, true
		}
	}
	return Image{}, false
}
