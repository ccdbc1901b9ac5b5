package importer_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hours-engine/clock"
	"github.com/warp/hours-engine/importer"
	"github.com/warp/hours-engine/ledger"
	"github.com/warp/hours-engine/rules"
	"github.com/warp/hours-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestImporter(t *testing.T) (*importer.Importer, *memory.Store, *ledger.Ledger) {
	t.Helper()
	store := memory.New()
	led := ledger.New(store, nil, nil)
	imp := importer.New(store, store, rules.NewEngine(), led, clock.Config{}, nil)
	imp.Calendar = store
	return imp, store, led
}

func seedEmployee(t *testing.T, store *memory.Store, id, externalID, name string) {
	t.Helper()
	require.NoError(t, store.PutEmployee(context.Background(), clock.Employee{
		ID:         clock.EmployeeID(id),
		ExternalID: externalID,
		Name:       name,
	}))
}

// =============================================================================
// TEXT IMPORT TESTS
// =============================================================================

func TestImportText_CleanBatch_AllImported(t *testing.T) {
	imp, store, _ := newTestImporter(t)
	seedEmployee(t, store, "emp-1", "12345", "John Doe")

	content := "PIS;Nome;Data;Entrada1;Saida1;Entrada2;Saida2\n" +
		"12345;John Doe;01/03/2024;08:00;12:00;13:00;18:00\n" +
		"12345;John Doe;02/03/2024;08:00;12:00;13:00;17:00\n"

	summary, err := imp.ImportText(context.Background(), "marco.txt", []byte(content))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 0, summary.Errors)
	require.Len(t, summary.Records, 2)
	assert.Equal(t, "John Doe", summary.Records[0].EmployeeName)
	assert.InDelta(t, 9.0, summary.Records[0].TotalHours, 1e-9)
	assert.Equal(t, 2, store.RecordCount())
}

func TestImportText_BadLine_PartialSuccess(t *testing.T) {
	// GIVEN: 10 data lines where line 5 is garbage
	// WHEN: The file is imported
	// THEN: 9 records import, 1 error is reported pointing at line 5

	imp, store, _ := newTestImporter(t)
	seedEmployee(t, store, "emp-1", "12345", "John Doe")

	var b strings.Builder
	for day := 1; day <= 10; day++ {
		if day == 5 {
			b.WriteString("not a valid record\n")
			continue
		}
		fmt.Fprintf(&b, "12345;John Doe;%02d/03/2024;08:00;12:00;13:00;17:00\n", day)
	}

	summary, err := imp.ImportText(context.Background(), "marco.txt", []byte(b.String()))
	require.NoError(t, err, "partial failure is a summary, not an error")

	assert.Equal(t, 9, summary.Imported)
	assert.Equal(t, 1, summary.Errors)
	require.Len(t, summary.ErrorDetails, 1)
	assert.Equal(t, 5, summary.ErrorDetails[0].Line)
	assert.Contains(t, summary.ErrorDetails[0].Content, "not a valid record")
}

func TestImportText_UnknownEmployee_CountedAsError(t *testing.T) {
	imp, _, _ := newTestImporter(t)

	summary, err := imp.ImportText(context.Background(), "marco.txt",
		[]byte("99999;Ghost;01/03/2024;08:00;17:00\n"))
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Imported)
	assert.Equal(t, 1, summary.Errors)
	assert.Contains(t, summary.ErrorDetails[0].Message, "99999")
}

func TestImportText_EmptyFile_Rejected(t *testing.T) {
	imp, _, _ := newTestImporter(t)

	_, err := imp.ImportText(context.Background(), "empty.txt", []byte("   \n\n  "))
	assert.ErrorIs(t, err, clock.ErrEmptyFile)
}

func TestImportText_HeaderOnly_ZeroImported(t *testing.T) {
	imp, _, _ := newTestImporter(t)

	summary, err := imp.ImportText(context.Background(), "header.txt",
		[]byte("PIS;Nome;Data;Entrada1;Saida1\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Imported)
	assert.Equal(t, 0, summary.Errors)
}

func TestImportText_Latin1Fallback_Decoded(t *testing.T) {
	// Legacy exports arrive as ISO 8859-1; "José" carries an 0xE9 byte.
	imp, store, _ := newTestImporter(t)
	seedEmployee(t, store, "emp-1", "12345", "José")

	line := []byte("12345;Jos\xe9;01/03/2024;08:00;17:00\n")

	summary, err := imp.ImportText(context.Background(), "legacy.txt", line)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
}

func TestImportText_Reimport_OverwritesDay(t *testing.T) {
	// Re-importing the same (employee, date) replaces the record instead of
	// duplicating it.
	imp, store, _ := newTestImporter(t)
	seedEmployee(t, store, "emp-1", "12345", "John Doe")
	ctx := context.Background()

	_, err := imp.ImportText(ctx, "v1.txt", []byte("12345;John;01/03/2024;08:00;12:00\n"))
	require.NoError(t, err)
	_, err = imp.ImportText(ctx, "v2.txt", []byte("12345;John;01/03/2024;08:00;12:00;13:00;17:00\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, store.RecordCount())

	stored, err := store.List(ctx, "emp-1", time.Time{}, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.InDelta(t, 8.0, stored[0].Result.TotalHours, 1e-9)
	assert.Equal(t, "v2.txt", stored[0].Record.SourceFile)
}

// =============================================================================
// LEDGER INTEGRATION TESTS
// =============================================================================

func TestImportText_Overtime_AccruesToLedger(t *testing.T) {
	// GIVEN: A 9-hour day against an 8-hour standard
	// WHEN: The file is imported
	// THEN: One accrual movement of 1 hour lands in the ledger

	imp, store, led := newTestImporter(t)
	seedEmployee(t, store, "emp-1", "12345", "John Doe")
	ctx := context.Background()

	_, err := imp.ImportText(ctx, "marco.txt",
		[]byte("12345;John Doe;01/03/2024;08:00;12:00;13:00;18:00\n"))
	require.NoError(t, err)

	bal, err := led.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, bal.Balance.Equal(decimal.NewFromInt(1)), "got %s", bal.Balance)

	moves, err := led.History(ctx, "emp-1", 0)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, ledger.MovementAccrual, moves[0].Type)
	assert.Equal(t, "marco.txt", moves[0].Metadata["sourceFile"])
	assert.Equal(t, "2024-03-01", moves[0].Metadata["date"])
}

func TestImportText_NoOvertime_NoMovement(t *testing.T) {
	imp, store, led := newTestImporter(t)
	seedEmployee(t, store, "emp-1", "12345", "John Doe")
	ctx := context.Background()

	_, err := imp.ImportText(ctx, "marco.txt",
		[]byte("12345;John Doe;01/03/2024;08:00;12:00;13:00;17:00\n"))
	require.NoError(t, err)

	moves, err := led.History(ctx, "emp-1", 0)
	require.NoError(t, err)
	assert.Empty(t, moves)
}

// =============================================================================
// CLASSIFICATION TESTS
// =============================================================================

func TestImportText_Holiday_Flagged(t *testing.T) {
	imp, store, _ := newTestImporter(t)
	seedEmployee(t, store, "emp-1", "12345", "John Doe")
	ctx := context.Background()

	holiday := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.AddHoliday(ctx, holiday, "Dia do Trabalho"))

	_, err := imp.ImportText(ctx, "maio.txt",
		[]byte("12345;John Doe;01/05/2024;08:00;12:00\n"))
	require.NoError(t, err)

	stored, err := store.List(ctx, "emp-1", time.Time{}, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Record.Holiday)
	assert.InDelta(t, 4.0, stored[0].Result.HolidayHours, 1e-9)
}

func TestImportText_Saturday_FlaggedWeekend(t *testing.T) {
	imp, store, _ := newTestImporter(t)
	seedEmployee(t, store, "emp-1", "12345", "John Doe")
	ctx := context.Background()

	// 2024-03-02 is a Saturday.
	_, err := imp.ImportText(ctx, "marco.txt",
		[]byte("12345;John Doe;02/03/2024;08:00;12:00\n"))
	require.NoError(t, err)

	stored, err := store.List(ctx, "emp-1", time.Time{}, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Record.Weekend)
}

// =============================================================================
// DISPATCH TESTS
// =============================================================================

func TestImportFile_UnsupportedExtension_Rejected(t *testing.T) {
	imp, _, _ := newTestImporter(t)

	_, err := imp.ImportFile(context.Background(), "punches.csv", []byte("data"))
	assert.ErrorIs(t, err, importer.ErrUnsupportedFormat)
}

func TestImportFile_TxtExtension_Dispatched(t *testing.T) {
	imp, store, _ := newTestImporter(t)
	seedEmployee(t, store, "emp-1", "12345", "John")

	summary, err := imp.ImportFile(context.Background(), "Punches.TXT",
		[]byte("12345;John;01/03/2024;08:00;17:00\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
}

// =============================================================================
// ROW IMPORT TESTS
// =============================================================================

func TestImportRows_SheetRowNumbering_StartsAtTwo(t *testing.T) {
	imp, store, _ := newTestImporter(t)
	seedEmployee(t, store, "emp-1", "12345", "John")

	rows := []map[string]string{
		{"Matrícula": "12345", "Data": "01/03/2024", "Entrada1": "08:00", "Saida1": "17:00"},
		{"Nome": "no id here", "Data": "02/03/2024"},
	}

	summary, err := imp.ImportRows(context.Background(), "marco.xlsx", rows)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Errors)
	require.Len(t, summary.ErrorDetails, 1)
	assert.Equal(t, 3, summary.ErrorDetails[0].Line, "row 1 is the header")
}
