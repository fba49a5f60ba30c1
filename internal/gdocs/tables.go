package gdocs

import (
	"context"

	"github.com/pstuifzand/gdoc/internal/apperr"
	"github.com/pstuifzand/gdoc/internal/mdparse"
	"google.golang.org/api/docs/v1"
)

// tableSlack is how far past the requested index the service may place a
// newly inserted table
const tableSlack = 2

// insertTable creates the table structure at index, locates the realized
// table and fills its cells. The header row is bolded.
func (r *Replacer) insertTable(ctx context.Context, docID, tabID string, index int64, table mdparse.TableData) error {
	create := []*docs.Request{{
		InsertTable: &docs.InsertTableRequest{
			Rows:     int64(table.NumRows),
			Columns:  int64(table.NumCols),
			Location: &docs.Location{Index: index, TabId: tabID},
		},
	}}
	if err := r.submit(ctx, docID, create, ""); err != nil {
		return err
	}

	doc, err := r.backend.GetDocument(ctx, docID, tabID != "")
	if err != nil {
		return err
	}
	realized := findTable(BodyFor(doc, tabID), index)
	if realized == nil {
		return apperr.New(apperr.KindBackend, "inserted table not found near index %d", index)
	}

	requests := fillTableRequests(cellIndexes(realized), table, tabID)
	if len(requests) == 0 {
		return nil
	}
	return r.submit(ctx, docID, requests, "")
}

// findTable returns the first top-level table starting within tableSlack
// positions after index
func findTable(body *docs.Body, index int64) *docs.Table {
	if body == nil {
		return nil
	}
	for _, el := range body.Content {
		if el.Table != nil && el.StartIndex >= index && el.StartIndex <= index+tableSlack {
			return el.Table
		}
	}
	return nil
}

// cellIndexes returns the first insertable index of every cell, row-major
func cellIndexes(t *docs.Table) [][]int64 {
	out := make([][]int64, len(t.TableRows))
	for r, row := range t.TableRows {
		out[r] = make([]int64, len(row.TableCells))
		for c, cell := range row.TableCells {
			if len(cell.Content) > 0 {
				out[r][c] = cell.Content[0].StartIndex
			} else {
				out[r][c] = cell.StartIndex + 1
			}
		}
	}
	return out
}

// fillTableRequests inserts cell text bottom-right to top-left, so no
// insert moves a cell that is still to be filled, then bolds the header
// cells using their final positions
func fillTableRequests(cells [][]int64, table mdparse.TableData, tabID string) []*docs.Request {
	var requests []*docs.Request
	for r := len(table.Rows) - 1; r >= 0; r-- {
		if r >= len(cells) {
			continue
		}
		for c := len(table.Rows[r]) - 1; c >= 0; c-- {
			text := table.Rows[r][c]
			if text == "" || c >= len(cells[r]) {
				continue
			}
			requests = append(requests, &docs.Request{
				InsertText: &docs.InsertTextRequest{
					Location: &docs.Location{Index: cells[r][c], TabId: tabID},
					Text:     text,
				},
			})
		}
	}

	if len(table.Rows) == 0 || len(cells) == 0 {
		return requests
	}
	var shift int64
	for c, text := range table.Rows[0] {
		if text == "" || c >= len(cells[0]) {
			continue
		}
		n := int64(mdparse.UTF16Len(text))
		start := cells[0][c] + shift
		requests = append(requests, &docs.Request{
			UpdateTextStyle: &docs.UpdateTextStyleRequest{
				Range:     &docs.Range{StartIndex: start, EndIndex: start + n, TabId: tabID},
				TextStyle: &docs.TextStyle{Bold: true},
				Fields:    "bold",
			},
		})
		shift += n
	}
	return requests
}
