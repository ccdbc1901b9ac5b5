/*
Package importer drives the file import pipeline.

PURPOSE:
  Processes an entire time-clock export record by record: normalize the raw
  line or row, resolve the employee, build punches, run the rule engine,
  upsert the canonical record, and accrue any extra hours on the ledger.

PARTIAL FAILURE IS THE DESIGN:
  One record's failure (parse error, unknown employee) is captured as a
  line-scoped error and never stops the batch. The summary always reports
  counts plus capped previews of successes and failures; every failure is
  retained internally and logged before truncation. Only whole-file
  problems (empty file, zero usable lines) abort the import, because no
  partial result is meaningful then.

SIDE-EFFECT ORDERING:
  Per record, the canonical upsert happens BEFORE the ledger update, so a
  ledger movement always references a persisted calculation. Already
  processed records are never rolled back; there is no mid-file
  cancellation concept at this layer.

SEE ALSO:
  - parse: line/row normalization and punch building
  - rules: the per-day calculation
  - ledger: accrual of extra hours
  - spreadsheet.go: the xlsx entry point
*/
package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/warp/hours-engine/clock"
	"github.com/warp/hours-engine/ledger"
	"github.com/warp/hours-engine/parse"
	"github.com/warp/hours-engine/rules"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for file extensions the importer cannot
// dispatch. TXT and Excel are the formats terminals actually produce.
var ErrUnsupportedFormat = errors.New("unsupported file format: use TXT or Excel")

// previewCap bounds the record/error samples embedded in a Summary.
const previewCap = 10

// =============================================================================
// COLLABORATOR PORTS
// =============================================================================

// Directory resolves raw terminal identifiers (PIS, matricula) to internal
// employees.
type Directory interface {
	ResolveByExternalID(ctx context.Context, externalID string) (clock.Employee, error)
}

// RecordStore upserts canonical records keyed by (employee, date) together
// with their calculation result. Re-importing a day overwrites it.
type RecordStore interface {
	Upsert(ctx context.Context, rec clock.Record, res clock.Result) error
	List(ctx context.Context, employeeID clock.EmployeeID, from, to time.Time) ([]StoredRecord, error)
}

// StoredRecord is a persisted record with its calculation attached.
type StoredRecord struct {
	Record clock.Record
	Result clock.Result
}

// HolidayCalendar flags statutory holidays so records carry the holiday
// classification. NopCalendar is used when no calendar is configured.
type HolidayCalendar interface {
	IsHoliday(date time.Time) bool
}

type NopCalendar struct{}

func (NopCalendar) IsHoliday(time.Time) bool { return false }

// =============================================================================
// SUMMARY
// =============================================================================

// ImportedRecord is one success row in the summary preview.
type ImportedRecord struct {
	EmployeeID   clock.EmployeeID `json:"employeeId"`
	ExternalID   string           `json:"externalId"`
	EmployeeName string           `json:"employeeName"`
	Date         time.Time        `json:"date"`
	TotalHours   float64          `json:"totalHours"`
	ExtraHours   float64          `json:"extraHours"`
}

// ImportError is one failure row. Line is 1-based; for spreadsheets it is
// the sheet row (header = row 1).
type ImportError struct {
	Line    int    `json:"line"`
	Content string `json:"content"`
	Message string `json:"message"`
}

// Summary is the per-import result handed back to the caller.
// Records and ErrorDetails are capped previews; Imported and Errors are the
// full counts.
type Summary struct {
	Imported     int              `json:"imported"`
	Errors       int              `json:"errors"`
	Records      []ImportedRecord `json:"records"`
	ErrorDetails []ImportError    `json:"errorDetails"`
	TotalLines   int              `json:"totalLines"`
}

// =============================================================================
// IMPORTER
// =============================================================================

// Importer wires the pipeline's collaborators. Config is the organization's
// active rule configuration, applied to every record in the file.
type Importer struct {
	Directory Directory
	Records   RecordStore
	Engine    *rules.Engine
	Ledger    *ledger.Ledger
	Calendar  HolidayCalendar
	Config    clock.Config
	Log       *zap.Logger
}

// New returns an importer with nil-safe defaults for calendar and logger.
func New(dir Directory, records RecordStore, engine *rules.Engine, led *ledger.Ledger, cfg clock.Config, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{
		Directory: dir,
		Records:   records,
		Engine:    engine,
		Ledger:    led,
		Calendar:  NopCalendar{},
		Config:    cfg,
		Log:       log,
	}
}

// ImportFile dispatches on the declared file name: .txt goes through the
// line parser, .xlsx/.xls through the spreadsheet reader.
func (im *Importer) ImportFile(ctx context.Context, filename string, data []byte) (*Summary, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "txt":
		return im.ImportText(ctx, filename, data)
	case "xlsx", "xls":
		return im.ImportSpreadsheet(ctx, filename, data)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ImportText processes a delimited or fixed-width text export.
func (im *Importer) ImportText(ctx context.Context, filename string, data []byte) (*Summary, error) {
	content := decodeText(data)
	if strings.TrimSpace(content) == "" {
		return nil, clock.ErrEmptyFile
	}

	var lines []string
	for _, raw := range strings.Split(content, "\n") {
		if line := strings.TrimSpace(strings.TrimSuffix(raw, "\r")); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, clock.ErrEmptyFile
	}
	im.Log.Info("starting import",
		zap.String("file", filename),
		zap.Int("lines", len(lines)))

	acc := newAccumulator(len(lines))
	for i, line := range lines {
		number := i + 1
		if parse.IsHeader(line) {
			im.Log.Debug("skipping header", zap.Int("line", number))
			continue
		}

		norm, err := parse.NormalizeLine(line, number)
		if err != nil {
			acc.fail(im.Log, number, line, err)
			continue
		}
		rec, err := im.process(ctx, filename, norm)
		if err != nil {
			acc.fail(im.Log, number, line, err)
			continue
		}
		acc.succeed(rec)
	}

	summary := acc.summary()
	im.Log.Info("import finished",
		zap.String("file", filename),
		zap.Int("imported", summary.Imported),
		zap.Int("errors", summary.Errors))
	return summary, nil
}

// ImportRows processes already-extracted tabular rows (cell values by
// column header). Rows are numbered from 2: row 1 is the header.
func (im *Importer) ImportRows(ctx context.Context, filename string, rows []map[string]string) (*Summary, error) {
	if len(rows) == 0 {
		return nil, clock.ErrEmptyFile
	}

	acc := newAccumulator(len(rows))
	for i, row := range rows {
		number := i + 2
		norm, err := parse.NormalizeRow(row, number)
		if err != nil {
			acc.fail(im.Log, number, rowPreview(row), err)
			continue
		}
		rec, err := im.process(ctx, filename, norm)
		if err != nil {
			acc.fail(im.Log, number, rowPreview(row), err)
			continue
		}
		acc.succeed(rec)
	}
	return acc.summary(), nil
}

// process runs one normalized record through the rest of the pipeline:
// resolve employee, parse date, build punches, calculate, upsert, accrue.
func (im *Importer) process(ctx context.Context, filename string, norm parse.Line) (ImportedRecord, error) {
	emp, err := im.Directory.ResolveByExternalID(ctx, norm.ExternalID)
	if err != nil {
		if clock.IsNotFound(err) {
			return ImportedRecord{}, &clock.UnknownEmployeeError{ExternalID: norm.ExternalID}
		}
		return ImportedRecord{}, err
	}

	date, err := parse.Date(norm.DateToken)
	if err != nil {
		return ImportedRecord{}, err
	}

	rec := clock.Record{
		EmployeeID: emp.ID,
		Date:       clock.Day(date),
		Punches:    parse.BuildPunches(norm.TimeTokens, date),
		Holiday:    im.calendar().IsHoliday(date),
		Weekend:    date.Weekday() == time.Saturday || date.Weekday() == time.Sunday,
		SourceFile: filename,
	}
	res := im.Engine.Calculate(rec, im.Config)

	// Upsert before the ledger update: a movement must always reference a
	// persisted calculation.
	if err := im.Records.Upsert(ctx, rec, res); err != nil {
		return ImportedRecord{}, err
	}

	if res.ExtraHours > 0 && im.Ledger != nil {
		_, err = im.Ledger.AddHours(ctx, emp.ID, res.ExtraHours,
			fmt.Sprintf("Overtime accrued on %s", rec.Date.Format("02/01/2006")),
			map[string]string{
				"sourceFile": filename,
				"date":       rec.Date.Format("2006-01-02"),
				"rules":      strings.Join(res.AppliedRules, ","),
			})
		if err != nil {
			return ImportedRecord{}, err
		}
	}

	return ImportedRecord{
		EmployeeID:   emp.ID,
		ExternalID:   emp.ExternalID,
		EmployeeName: emp.Name,
		Date:         rec.Date,
		TotalHours:   res.TotalHours,
		ExtraHours:   res.ExtraHours,
	}, nil
}

func (im *Importer) calendar() HolidayCalendar {
	if im.Calendar == nil {
		return NopCalendar{}
	}
	return im.Calendar
}

// =============================================================================
// PARTIAL-FAILURE ACCUMULATOR
// =============================================================================

// accumulator carries the full success/failure sequences; the summary caps
// the previews but never the counts. Failures are logged before truncation.
type accumulator struct {
	total    int
	records  []ImportedRecord
	failures []ImportError
}

func newAccumulator(total int) *accumulator {
	return &accumulator{total: total}
}

func (a *accumulator) succeed(rec ImportedRecord) {
	a.records = append(a.records, rec)
}

func (a *accumulator) fail(log *zap.Logger, line int, content string, err error) {
	log.Warn("record failed",
		zap.Int("line", line),
		zap.Error(err))
	a.failures = append(a.failures, ImportError{
		Line:    line,
		Content: truncate(content, 100),
		Message: err.Error(),
	})
}

func (a *accumulator) summary() *Summary {
	return &Summary{
		Imported:     len(a.records),
		Errors:       len(a.failures),
		Records:      capped(a.records),
		ErrorDetails: capped(a.failures),
		TotalLines:   a.total,
	}
}

func capped[T any](s []T) []T {
	if len(s) > previewCap {
		return s[:previewCap]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func rowPreview(row map[string]string) string {
	parts := make([]string, 0, len(row))
	for k, v := range row {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ";")
}
