/*
Package sqlite provides a SQLite-backed implementation of the storage ports.

PURPOSE:
  Implements every persistence port of the engine (employee directory,
  record store, ledger store, compensation store, holiday calendar) on a
  single SQLite database. In production the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  employees             Directory entries keyed by external identifier
  time_clock_records    Canonical punches + calculation, one row per
                        (employee, date) - the import upsert key
  hour_balances         Current balance snapshot per employee
  balance_movements     Append-only movement log (no UPDATE, no DELETE)
  compensations         Compensation requests
  holidays              Statutory holiday calendar

APPEND-ONLY ENFORCEMENT:
  balance_movements has insert and select paths only; corrections happen as
  new movements, never edits.

WAL MODE:
  Opened with WAL so readers don't block the single writer, with better
  crash recovery.

USAGE:
  store, err := sqlite.New("./data/hours.db")  // ":memory:" for tests
  defer store.Close()

SEE ALSO:
  - ledger.Store, importer.Directory/RecordStore, compensation.Store:
    the port definitions
  - store/memory: the in-memory twin used in unit tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/hours-engine/clock"
	"github.com/warp/hours-engine/compensation"
	"github.com/warp/hours-engine/importer"
	"github.com/warp/hours-engine/ledger"
)

// Store implements all storage ports using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Canonical records: one row per (employee, date). Import upserts here.
	CREATE TABLE IF NOT EXISTS time_clock_records (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		entry1 TEXT, exit1 TEXT,
		entry2 TEXT, exit2 TEXT,
		entry3 TEXT, exit3 TEXT,
		holiday INTEGER NOT NULL DEFAULT 0,
		weekend INTEGER NOT NULL DEFAULT 0,
		source_file TEXT,
		total_hours REAL NOT NULL,
		extra_hours REAL NOT NULL,
		night_hours REAL NOT NULL,
		holiday_hours REAL NOT NULL,
		weekly_rest_hours REAL NOT NULL DEFAULT 0,
		applied_rules_json TEXT NOT NULL,
		calculated_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_records_employee_date
		ON time_clock_records(employee_id, date DESC);

	CREATE TABLE IF NOT EXISTS hour_balances (
		employee_id TEXT PRIMARY KEY,
		balance TEXT NOT NULL,
		status TEXT NOT NULL,
		valid_until TEXT,
		updated_at TEXT NOT NULL
	);

	-- Append-only: no UPDATE or DELETE path exists for this table.
	CREATE TABLE IF NOT EXISTS balance_movements (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		movement_type TEXT NOT NULL,
		hours TEXT NOT NULL,
		description TEXT,
		reference_date TEXT NOT NULL,
		metadata_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_movements_employee_created
		ON balance_movements(employee_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS compensations (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		hours TEXT NOT NULL,
		date TEXT NOT NULL,
		reason TEXT,
		status TEXT NOT NULL,
		requested_by TEXT,
		approved_by TEXT,
		approved_at TEXT,
		rejection_reason TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_compensations_employee
		ON compensations(employee_id);
	CREATE INDEX IF NOT EXISTS idx_compensations_status
		ON compensations(status);

	CREATE TABLE IF NOT EXISTS holidays (
		date TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEE DIRECTORY (importer.Directory)
// =============================================================================

// PutEmployee creates or updates a directory entry.
func (s *Store) PutEmployee(ctx context.Context, e clock.Employee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, external_id, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET external_id = excluded.external_id, name = excluded.name`,
		string(e.ID), e.ExternalID, e.Name, time.Now().UTC().Format(time.RFC3339))
	return err
}

// ResolveByExternalID maps a raw terminal identifier to an employee.
func (s *Store) ResolveByExternalID(ctx context.Context, externalID string) (clock.Employee, error) {
	var e clock.Employee
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, external_id, name FROM employees WHERE external_id = ?`, externalID).
		Scan(&id, &e.ExternalID, &e.Name)
	if err == sql.ErrNoRows {
		return clock.Employee{}, &clock.UnknownEmployeeError{ExternalID: externalID}
	}
	if err != nil {
		return clock.Employee{}, err
	}
	e.ID = clock.EmployeeID(id)
	return e, nil
}

// =============================================================================
// RECORD STORE (importer.RecordStore)
// =============================================================================

func (s *Store) Upsert(ctx context.Context, rec clock.Record, res clock.Result) error {
	rules, err := json.Marshal(res.AppliedRules)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO time_clock_records
			(employee_id, date, entry1, exit1, entry2, exit2, entry3, exit3,
			 holiday, weekend, source_file,
			 total_hours, extra_hours, night_hours, holiday_hours,
			 weekly_rest_hours, applied_rules_json, calculated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			entry1 = excluded.entry1, exit1 = excluded.exit1,
			entry2 = excluded.entry2, exit2 = excluded.exit2,
			entry3 = excluded.entry3, exit3 = excluded.exit3,
			holiday = excluded.holiday, weekend = excluded.weekend,
			source_file = excluded.source_file,
			total_hours = excluded.total_hours,
			extra_hours = excluded.extra_hours,
			night_hours = excluded.night_hours,
			holiday_hours = excluded.holiday_hours,
			weekly_rest_hours = excluded.weekly_rest_hours,
			applied_rules_json = excluded.applied_rules_json,
			calculated_at = excluded.calculated_at`,
		string(rec.EmployeeID), rec.Date.Format("2006-01-02"),
		nullTime(rec.Punches[0].Entry), nullTime(rec.Punches[0].Exit),
		nullTime(rec.Punches[1].Entry), nullTime(rec.Punches[1].Exit),
		nullTime(rec.Punches[2].Entry), nullTime(rec.Punches[2].Exit),
		boolInt(rec.Holiday), boolInt(rec.Weekend), rec.SourceFile,
		res.TotalHours, res.ExtraHours, res.NightHours, res.HolidayHours,
		res.WeeklyRestHours, string(rules), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) List(ctx context.Context, employeeID clock.EmployeeID, from, to time.Time) ([]importer.StoredRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, date, entry1, exit1, entry2, exit2, entry3, exit3,
		       holiday, weekend, source_file,
		       total_hours, extra_hours, night_hours, holiday_hours,
		       weekly_rest_hours, applied_rules_json
		FROM time_clock_records
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date DESC`,
		string(employeeID), from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []importer.StoredRecord
	for rows.Next() {
		var (
			sr                               importer.StoredRecord
			empID, date, rulesJSON           string
			e1, x1, e2, x2, e3, x3, srcFile  sql.NullString
			holiday, weekend                 int
		)
		if err := rows.Scan(&empID, &date, &e1, &x1, &e2, &x2, &e3, &x3,
			&holiday, &weekend, &srcFile,
			&sr.Result.TotalHours, &sr.Result.ExtraHours, &sr.Result.NightHours,
			&sr.Result.HolidayHours, &sr.Result.WeeklyRestHours, &rulesJSON); err != nil {
			return nil, err
		}
		sr.Record.EmployeeID = clock.EmployeeID(empID)
		sr.Record.Date, _ = time.Parse("2006-01-02", date)
		sr.Record.Punches[0] = clock.Punch{Entry: parseNull(e1), Exit: parseNull(x1)}
		sr.Record.Punches[1] = clock.Punch{Entry: parseNull(e2), Exit: parseNull(x2)}
		sr.Record.Punches[2] = clock.Punch{Entry: parseNull(e3), Exit: parseNull(x3)}
		sr.Record.Holiday = holiday != 0
		sr.Record.Weekend = weekend != 0
		sr.Record.SourceFile = srcFile.String
		if err := json.Unmarshal([]byte(rulesJSON), &sr.Result.AppliedRules); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// =============================================================================
// LEDGER STORE (ledger.Store)
// =============================================================================

func (s *Store) GetBalance(ctx context.Context, employeeID clock.EmployeeID) (ledger.Balance, error) {
	var (
		b          ledger.Balance
		balance    string
		status     string
		validUntil sql.NullString
		updatedAt  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT balance, status, valid_until, updated_at FROM hour_balances WHERE employee_id = ?`,
		string(employeeID)).Scan(&balance, &status, &validUntil, &updatedAt)
	if err == sql.ErrNoRows {
		return ledger.Balance{}, clock.ErrBalanceNotFound
	}
	if err != nil {
		return ledger.Balance{}, err
	}

	b.EmployeeID = employeeID
	b.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return ledger.Balance{}, fmt.Errorf("corrupt balance for %s: %w", employeeID, err)
	}
	b.Status = ledger.Status(status)
	b.ValidUntil = parseNull(validUntil)
	b.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return b, nil
}

func (s *Store) PutBalance(ctx context.Context, b ledger.Balance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hour_balances (employee_id, balance, status, valid_until, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(employee_id) DO UPDATE SET
			balance = excluded.balance,
			status = excluded.status,
			valid_until = excluded.valid_until,
			updated_at = excluded.updated_at`,
		string(b.EmployeeID), b.Balance.String(), string(b.Status),
		nullTime(b.ValidUntil), b.UpdatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) AppendMovement(ctx context.Context, m ledger.Movement) error {
	meta, err := json.Marshal(m.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO balance_movements
			(id, employee_id, movement_type, hours, description, reference_date, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, string(m.EmployeeID), string(m.Type), m.Hours.String(), m.Description,
		m.ReferenceDate.Format(time.RFC3339), string(meta), m.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) Movements(ctx context.Context, employeeID clock.EmployeeID, limit int) ([]ledger.Movement, error) {
	q := `
		SELECT id, movement_type, hours, description, reference_date, metadata_json, created_at
		FROM balance_movements
		WHERE employee_id = ?
		ORDER BY created_at DESC, rowid DESC`
	args := []any{string(employeeID)}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Movement
	for rows.Next() {
		var (
			m                       ledger.Movement
			typ, hours, refDate     string
			meta                    sql.NullString
			desc                    sql.NullString
			createdAt               string
		)
		if err := rows.Scan(&m.ID, &typ, &hours, &desc, &refDate, &meta, &createdAt); err != nil {
			return nil, err
		}
		m.EmployeeID = employeeID
		m.Type = ledger.MovementType(typ)
		m.Hours, err = decimal.NewFromString(hours)
		if err != nil {
			return nil, fmt.Errorf("corrupt movement %s: %w", m.ID, err)
		}
		m.Description = desc.String
		m.ReferenceDate, _ = time.Parse(time.RFC3339, refDate)
		m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &m.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// =============================================================================
// COMPENSATION STORE (compensation.Store)
// =============================================================================

func (s *Store) PutRequest(ctx context.Context, r compensation.Request) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO compensations
			(id, employee_id, hours, date, reason, status, requested_by,
			 approved_by, approved_at, rejection_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			approved_by = excluded.approved_by,
			approved_at = excluded.approved_at,
			rejection_reason = excluded.rejection_reason`,
		r.ID, string(r.EmployeeID), r.Hours.String(), r.Date.Format("2006-01-02"),
		r.Reason, string(r.Status), r.RequestedBy, r.ApprovedBy,
		nullTime(r.ApprovedAt), r.RejectionReason, r.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) GetRequest(ctx context.Context, id string) (compensation.Request, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, hours, date, reason, status, requested_by,
		       approved_by, approved_at, rejection_reason, created_at
		FROM compensations WHERE id = ?`, id)
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return compensation.Request{}, compensation.ErrRequestNotFound
	}
	return req, err
}

func (s *Store) ListRequests(ctx context.Context, employeeID clock.EmployeeID, status compensation.Status) ([]compensation.Request, error) {
	q := `
		SELECT id, employee_id, hours, date, reason, status, requested_by,
		       approved_by, approved_at, rejection_reason, created_at
		FROM compensations WHERE 1=1`
	var args []any
	if employeeID != "" {
		q += ` AND employee_id = ?`
		args = append(args, string(employeeID))
	}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, string(status))
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []compensation.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (compensation.Request, error) {
	var (
		r                         compensation.Request
		empID, hours, date        string
		status, createdAt         string
		reason, reqBy, apprBy     sql.NullString
		apprAt, rejectionReason   sql.NullString
	)
	if err := row.Scan(&r.ID, &empID, &hours, &date, &reason, &status,
		&reqBy, &apprBy, &apprAt, &rejectionReason, &createdAt); err != nil {
		return compensation.Request{}, err
	}
	r.EmployeeID = clock.EmployeeID(empID)
	var err error
	r.Hours, err = decimal.NewFromString(hours)
	if err != nil {
		return compensation.Request{}, fmt.Errorf("corrupt compensation %s: %w", r.ID, err)
	}
	r.Date, _ = time.Parse("2006-01-02", date)
	r.Reason = reason.String
	r.Status = compensation.Status(status)
	r.RequestedBy = reqBy.String
	r.ApprovedBy = apprBy.String
	r.ApprovedAt = parseNull(apprAt)
	r.RejectionReason = rejectionReason.String
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return r, nil
}

// =============================================================================
// HOLIDAY CALENDAR (importer.HolidayCalendar)
// =============================================================================

// AddHoliday registers a statutory holiday.
func (s *Store) AddHoliday(ctx context.Context, date time.Time, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (date, name) VALUES (?, ?)
		ON CONFLICT(date) DO UPDATE SET name = excluded.name`,
		date.Format("2006-01-02"), name)
	return err
}

// IsHoliday reports whether the date is a registered holiday. Lookup
// failures count as "not a holiday" - the flag is a classification aid,
// not a correctness gate.
func (s *Store) IsHoliday(date time.Time) bool {
	var name string
	err := s.db.QueryRow(`SELECT name FROM holidays WHERE date = ?`,
		date.Format("2006-01-02")).Scan(&name)
	return err == nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseNull(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
