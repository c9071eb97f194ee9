package sheetsync

import "context"

// Grid is the 2-D cell matrix returned by a fetch. Row 0 is the header row
// unless every header cell is blank, in which case the grid is headerless
// and row 0 is data.
type Grid [][]Cell

// HeaderStrings extracts row 0 as text
func (g Grid) HeaderStrings() []string {
	if len(g) == 0 {
		return nil
	}
	headers := make([]string, len(g[0]))
	for i, cell := range g[0] {
		headers[i] = cell.StringValue()
	}
	return headers
}

// IsHeaderless reports whether every cell of row 0 is blank
func (g Grid) IsHeaderless() bool {
	if len(g) == 0 {
		return true
	}
	for _, cell := range g[0] {
		if !cell.IsEmpty() {
			return false
		}
	}
	return true
}

// SheetFetcher reads the external spreadsheet. The transport behind it is an
// external collaborator's concern; implementations only promise a grid of
// typed cells for a location.
type SheetFetcher interface {
	Fetch(ctx context.Context, location SheetLocation) (Grid, error)
}
