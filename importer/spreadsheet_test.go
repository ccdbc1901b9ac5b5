package importer_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hours-engine/clock"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes a one-sheet workbook: a header row followed by the
// given data rows.
func buildWorkbook(t *testing.T, header []string, rows [][]string) []byte {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()

	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))
	return buf.Bytes()
}

func TestImportSpreadsheet_CleanWorkbook_Imported(t *testing.T) {
	imp, store, _ := newTestImporter(t)
	seedEmployee(t, store, "emp-1", "12345", "John Doe")

	data := buildWorkbook(t,
		[]string{"Matrícula", "Nome", "Data", "Entrada1", "Saida1", "Entrada2", "Saida2"},
		[][]string{
			{"12345", "John Doe", "01/03/2024", "08:00", "12:00", "13:00", "18:00"},
			{"12345", "John Doe", "04/03/2024", "08:00", "12:00", "13:00", "17:00"},
		})

	summary, err := imp.ImportSpreadsheet(context.Background(), "marco.xlsx", data)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 0, summary.Errors)
	assert.Equal(t, 2, store.RecordCount())
}

func TestImportSpreadsheet_BadRow_ReportedBySheetRow(t *testing.T) {
	imp, store, _ := newTestImporter(t)
	seedEmployee(t, store, "emp-1", "12345", "John Doe")

	data := buildWorkbook(t,
		[]string{"Matrícula", "Nome", "Data", "Entrada1", "Saida1"},
		[][]string{
			{"12345", "John Doe", "01/03/2024", "08:00", "17:00"},
			{"", "no id", "02/03/2024", "08:00", "17:00"},
		})

	summary, err := imp.ImportSpreadsheet(context.Background(), "marco.xlsx", data)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Imported)
	require.Len(t, summary.ErrorDetails, 1)
	assert.Equal(t, 3, summary.ErrorDetails[0].Line, "row 1 is the header")
}

func TestImportSpreadsheet_HeaderOnly_Rejected(t *testing.T) {
	imp, _, _ := newTestImporter(t)

	data := buildWorkbook(t, []string{"Matrícula", "Nome", "Data"}, nil)

	_, err := imp.ImportSpreadsheet(context.Background(), "empty.xlsx", data)
	assert.ErrorIs(t, err, clock.ErrEmptyFile)
}

func TestImportSpreadsheet_NotAWorkbook_Rejected(t *testing.T) {
	imp, _, _ := newTestImporter(t)

	_, err := imp.ImportSpreadsheet(context.Background(), "fake.xlsx", []byte("plain text"))
	assert.ErrorIs(t, err, clock.ErrEmptyFile)
}

func TestImportFile_XlsxExtension_Dispatched(t *testing.T) {
	imp, store, _ := newTestImporter(t)
	seedEmployee(t, store, "emp-1", "12345", "John Doe")

	data := buildWorkbook(t,
		[]string{"Matrícula", "Data", "Entrada1", "Saida1"},
		[][]string{{"12345", "01/03/2024", "08:00", "17:00"}})

	summary, err := imp.ImportFile(context.Background(), "marco.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
}
