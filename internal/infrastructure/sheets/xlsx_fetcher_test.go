package sheets

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ordersuite/backend/internal/domain/sheetsync"
)

// writeTestWorkbook creates an XLSX file with an order sheet
func writeTestWorkbook(t *testing.T, dir, name string) {
	t.Helper()
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	sheet := "Commandes"
	_, err := wb.NewSheet(sheet)
	require.NoError(t, err)

	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]any{"Nom Client", "Quantité", "Prix", "Statut"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A2", &[]any{"Ahmed Benali", 2, 499.99, "Confirmé"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A3", &[]any{"Fatima Zahra", 1, 120, "Livré"}))

	require.NoError(t, wb.SaveAs(filepath.Join(dir, name)))
}

func TestXLSXSheetFetcher_Fetch(t *testing.T) {
	dir := t.TempDir()
	writeTestWorkbook(t, dir, "boutique.xlsx")

	fetcher := NewXLSXSheetFetcher(dir, nil)
	grid, err := fetcher.Fetch(context.Background(), sheetsync.SheetLocation{
		SpreadsheetID: "boutique",
		SheetName:     "Commandes",
	})
	require.NoError(t, err)
	require.Len(t, grid, 3)

	assert.Equal(t, []string{"Nom Client", "Quantité", "Prix", "Statut"}, grid.HeaderStrings())

	row := grid[1]
	require.Len(t, row, 4)
	assert.Equal(t, "Ahmed Benali", row[0].StringValue())
	assert.Equal(t, 2.0, row[1].NumberValue())
	assert.Equal(t, 499.99, row[2].NumberValue())
	assert.Equal(t, "Confirmé", row[3].StringValue())
}

func TestXLSXSheetFetcher_DefaultsToFirstSheet(t *testing.T) {
	dir := t.TempDir()

	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetRow("Sheet1", "A1", &[]any{"Nom Client"}))
	require.NoError(t, wb.SetSheetRow("Sheet1", "A2", &[]any{"Karim"}))
	require.NoError(t, wb.SaveAs(filepath.Join(dir, "single.xlsx")))
	require.NoError(t, wb.Close())

	fetcher := NewXLSXSheetFetcher(dir, nil)
	grid, err := fetcher.Fetch(context.Background(), sheetsync.SheetLocation{SpreadsheetID: "single"})
	require.NoError(t, err)
	require.Len(t, grid, 2)
	assert.Equal(t, "Karim", grid[1][0].StringValue())
}

func TestXLSXSheetFetcher_MissingWorkbook(t *testing.T) {
	fetcher := NewXLSXSheetFetcher(t.TempDir(), nil)

	_, err := fetcher.Fetch(context.Background(), sheetsync.SheetLocation{SpreadsheetID: "nope"})
	assert.Error(t, err)
}

func TestXLSXSheetFetcher_RejectsPathSeparators(t *testing.T) {
	fetcher := NewXLSXSheetFetcher(t.TempDir(), nil)

	_, err := fetcher.Fetch(context.Background(), sheetsync.SheetLocation{SpreadsheetID: "../etc/passwd"})
	assert.Error(t, err)
}

func TestXLSXSheetFetcher_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeTestWorkbook(t, dir, "boutique.xlsx")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewXLSXSheetFetcher(dir, nil)
	_, err := fetcher.Fetch(ctx, sheetsync.SheetLocation{SpreadsheetID: "boutique", SheetName: "Commandes"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestXLSXSheetFetcher_MissingSheetName(t *testing.T) {
	dir := t.TempDir()
	writeTestWorkbook(t, dir, "boutique.xlsx")

	fetcher := NewXLSXSheetFetcher(dir, nil)
	_, err := fetcher.Fetch(context.Background(), sheetsync.SheetLocation{
		SpreadsheetID: "boutique",
		SheetName:     "Inconnue",
	})
	assert.Error(t, err)
}
