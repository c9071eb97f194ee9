package sheets

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ordersuite/backend/internal/domain/sheetsync"
)

// XLSXSheetFetcher reads sheet grids from XLSX workbooks in a local
// directory. The location's spreadsheet ID is the workbook file name
// without extension; an empty sheet name selects the workbook's first
// sheet.
type XLSXSheetFetcher struct {
	dir    string
	logger *zap.Logger
}

// NewXLSXSheetFetcher creates a fetcher rooted at the given directory
func NewXLSXSheetFetcher(dir string, logger *zap.Logger) *XLSXSheetFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &XLSXSheetFetcher{dir: dir, logger: logger}
}

// Fetch reads the located sheet into a grid. Each cell carries both the raw
// stored value (numbers stay numeric, so date serials survive) and the
// formatted display text.
func (f *XLSXSheetFetcher) Fetch(ctx context.Context, location sheetsync.SheetLocation) (sheetsync.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.ContainsAny(location.SpreadsheetID, `/\`) {
		return nil, fmt.Errorf("invalid spreadsheet ID %q", location.SpreadsheetID)
	}

	path := filepath.Join(f.dir, location.SpreadsheetID+".xlsx")
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", location.SpreadsheetID, err)
	}
	defer func() { _ = wb.Close() }()

	sheet := location.SheetName
	if sheet == "" {
		sheetList := wb.GetSheetList()
		if len(sheetList) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", location.SpreadsheetID)
		}
		sheet = sheetList[0]
	}

	formatted, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	raw, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	grid := make(sheetsync.Grid, len(formatted))
	for i := range formatted {
		width := len(formatted[i])
		if i < len(raw) && len(raw[i]) > width {
			width = len(raw[i])
		}
		row := make([]sheetsync.Cell, width)
		for j := 0; j < width; j++ {
			var rawVal, display string
			if j < len(formatted[i]) {
				display = formatted[i][j]
			}
			if i < len(raw) && j < len(raw[i]) {
				rawVal = raw[i][j]
			}
			row[j] = buildCell(rawVal, display)
		}
		grid[i] = row
	}

	f.logger.Debug("fetched sheet",
		zap.String("spreadsheet_id", location.SpreadsheetID),
		zap.String("sheet", sheet),
		zap.Int("rows", len(grid)))
	return grid, nil
}

// buildCell keeps the raw value numeric when it parses as a number, so
// downstream date-serial and quantity extraction see what the workbook
// stores rather than its display string.
func buildCell(rawVal, display string) sheetsync.Cell {
	cell := sheetsync.Cell{Formatted: display}
	if rawVal == "" {
		return cell
	}
	if n, err := strconv.ParseFloat(rawVal, 64); err == nil {
		cell.Value = n
		return cell
	}
	cell.Value = rawVal
	return cell
}

// Ensure XLSXSheetFetcher implements SheetFetcher
var _ sheetsync.SheetFetcher = (*XLSXSheetFetcher)(nil)
