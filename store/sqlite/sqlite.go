/*
Package sqlite provides a SQLite-backed implementation of the scheduling stores.

PURPOSE:
  Implements every persistence interface the engine reads and writes
  through, using SQLite. The SQL stays portable; moving to PostgreSQL is
  a driver and placeholder change.

INTERFACES IMPLEMENTED:
  scheduling.ShiftStore:       Shifts with their assignment lists
  scheduling.AbsenceStore:     Absence requests and decisions
  scheduling.AbsenceSubmitter: New absence requests
  scheduling.ContractStore:    CCNL limits and running totals
  scheduling.WeeklyShiftStore: Publication records
  generic.AuditLog:            Who did what when

KEY TABLES:
  shifts:         One row per shift, assignments/breaks/notes as JSON
  absences:       Requests with their decision fields
  contracts:      One row per employee
  weekly_shifts:  Append-only publication events
  audit_log:      Append-only

DATES:
  Calendar dates are stored as YYYY-MM-DD text so range filters compare
  lexicographically. Clock times are stored as minutes from midnight.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/bizsync.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). Open() wraps an existing *sql.DB
  without migrating, for tests that drive the driver directly.

SEE ALSO:
  - scheduling/store.go: Interface definitions
  - store/memory/memory.go: In-memory implementation for testing
  - store/cache/publication.go: Redis read-through for publication lookups
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/GiuseppeRudi/BizSync-sub002/generic"
	"github.com/GiuseppeRudi/BizSync-sub002/scheduling"
)

const dateLayout = "2006-01-02"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	store := Open(db)
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Open wraps an already opened database. The schema is assumed present.
func Open(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		department TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		start_minute INTEGER NOT NULL,
		end_minute INTEGER NOT NULL,
		employees_json TEXT NOT NULL DEFAULT '[]',
		breaks_json TEXT NOT NULL DEFAULT '[]',
		notes_json TEXT NOT NULL DEFAULT '[]',
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_company_date
		ON shifts(company_id, date);

	CREATE TABLE IF NOT EXISTS absences (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		window_start INTEGER,
		window_end INTEGER,
		status TEXT NOT NULL DEFAULT 'PENDING',
		total_days TEXT NOT NULL,
		total_hours TEXT NOT NULL,
		approver_id TEXT,
		approval_date TEXT,
		comment TEXT,
		created_at TEXT NOT NULL
	);

	-- Overlap queries: start_date <= ? AND end_date >= ?
	CREATE INDEX IF NOT EXISTS idx_absences_company_range
		ON absences(company_id, start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_absences_employee
		ON absences(employee_id);

	CREATE TABLE IF NOT EXISTS contracts (
		employee_id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		ccnl TEXT NOT NULL DEFAULT '',
		vacation_days_limit TEXT NOT NULL,
		rol_hours_limit TEXT NOT NULL,
		paid_sick_days_limit TEXT NOT NULL,
		vacation_days_used TEXT NOT NULL,
		rol_hours_used TEXT NOT NULL,
		sick_days_used TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_company
		ON contracts(company_id);

	-- Append-only; the highest seq of a week is its current state
	CREATE TABLE IF NOT EXISTS weekly_shifts (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		company_id TEXT NOT NULL,
		week_start TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_weekly_shifts_company_week
		ON weekly_shifts(company_id, week_start, status);

	CREATE TABLE IF NOT EXISTS audit_log (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		timestamp TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		company_id TEXT NOT NULL DEFAULT '',
		entity_id TEXT NOT NULL DEFAULT '',
		payload_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_company
		ON audit_log(company_id);
	CREATE INDEX IF NOT EXISTS idx_audit_entity
		ON audit_log(entity_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SHIFT STORE (scheduling.ShiftStore interface)
// =============================================================================

type breakRow struct {
	Minutes int    `json:"minutes"`
	Paid    bool   `json:"paid"`
	Type    string `json:"type"`
}

type noteRow struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const shiftColumns = `id, company_id, department, date, start_minute, end_minute,
	employees_json, breaks_json, notes_json`

// ShiftsOnDate returns the company's shifts on date ordered by start time.
func (s *Store) ShiftsOnDate(ctx context.Context, companyID scheduling.CompanyID, date generic.TimePoint) ([]scheduling.Shift, error) {
	return s.ShiftsInRange(ctx, companyID, date, date)
}

// ShiftsInRange returns the company's shifts with from <= date <= to.
func (s *Store) ShiftsInRange(ctx context.Context, companyID scheduling.CompanyID, from, to generic.TimePoint) ([]scheduling.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + shiftColumns + `
		FROM shifts
		WHERE company_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, start_minute ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, companyID, from.Time.Format(dateLayout), to.Time.Format(dateLayout))
	if err != nil {
		return nil, generic.WrapStore("query shifts", err)
	}
	defer rows.Close()

	var shifts []scheduling.Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, generic.WrapStore("scan shift", err)
		}
		shifts = append(shifts, sh)
	}
	return shifts, generic.WrapStore("iterate shifts", rows.Err())
}

// GetShift returns a shift by ID, nil if unknown.
func (s *Store) GetShift(ctx context.Context, id scheduling.ShiftID) (*scheduling.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, id)
	sh, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, generic.WrapStore("get shift", err)
	}
	return &sh, nil
}

// SaveShift inserts or replaces a shift.
func (s *Store) SaveShift(ctx context.Context, shift scheduling.Shift) error {
	if err := shift.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveShift(ctx, s.db, shift)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) saveShift(ctx context.Context, db execer, shift scheduling.Shift) error {
	employees := shift.Employees
	if employees == nil {
		employees = []scheduling.EmployeeID{}
	}
	employeesJSON, _ := json.Marshal(employees)

	breaks := make([]breakRow, 0, len(shift.Breaks))
	for _, b := range shift.Breaks {
		breaks = append(breaks, breakRow{Minutes: int(b.Duration / time.Minute), Paid: b.Paid, Type: string(b.Type)})
	}
	breaksJSON, _ := json.Marshal(breaks)

	notes := make([]noteRow, 0, len(shift.Notes))
	for _, n := range shift.Notes {
		notes = append(notes, noteRow{Type: string(n.Type), Text: n.Text})
	}
	notesJSON, _ := json.Marshal(notes)

	query := `
		INSERT INTO shifts (` + shiftColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_id = excluded.company_id,
			department = excluded.department,
			date = excluded.date,
			start_minute = excluded.start_minute,
			end_minute = excluded.end_minute,
			employees_json = excluded.employees_json,
			breaks_json = excluded.breaks_json,
			notes_json = excluded.notes_json,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query,
		shift.ID, shift.CompanyID, shift.Department, shift.Date.Time.Format(dateLayout),
		int(shift.Window.Start), int(shift.Window.End),
		string(employeesJSON), string(breaksJSON), string(notesJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	return generic.WrapStore("save shift", err)
}

// RemoveEmployee drops one assignment inside a transaction. The shift row
// stays even when no employee is left.
func (s *Store) RemoveEmployee(ctx context.Context, shiftID scheduling.ShiftID, employeeID scheduling.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return generic.WrapStore("begin remove employee", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, shiftID)
	shift, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("shift %s: %w", shiftID, generic.ErrNotFound)
	}
	if err != nil {
		return generic.WrapStore("load shift", err)
	}

	if err := s.saveShift(ctx, tx, shift.WithoutEmployee(employeeID)); err != nil {
		return err
	}
	return generic.WrapStore("commit remove employee", tx.Commit())
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShift(row scanner) (scheduling.Shift, error) {
	var (
		sh                                   scheduling.Shift
		date                                 string
		start, end                           int
		employeesJSON, breaksJSON, notesJSON string
	)
	if err := row.Scan(&sh.ID, &sh.CompanyID, &sh.Department, &date, &start, &end,
		&employeesJSON, &breaksJSON, &notesJSON); err != nil {
		return sh, err
	}

	d, err := generic.ParseTimePoint(date)
	if err != nil {
		return sh, fmt.Errorf("shift %s: bad date %q: %w", sh.ID, date, err)
	}
	sh.Date = d
	sh.Window = generic.NewTimeRange(generic.ClockTime(start), generic.ClockTime(end))

	if err := json.Unmarshal([]byte(employeesJSON), &sh.Employees); err != nil {
		return sh, fmt.Errorf("shift %s: bad employees: %w", sh.ID, err)
	}
	var breaks []breakRow
	if err := json.Unmarshal([]byte(breaksJSON), &breaks); err != nil {
		return sh, fmt.Errorf("shift %s: bad breaks: %w", sh.ID, err)
	}
	for _, b := range breaks {
		sh.Breaks = append(sh.Breaks, scheduling.Break{
			Duration: time.Duration(b.Minutes) * time.Minute,
			Paid:     b.Paid,
			Type:     scheduling.BreakType(b.Type),
		})
	}
	var notes []noteRow
	if err := json.Unmarshal([]byte(notesJSON), &notes); err != nil {
		return sh, fmt.Errorf("shift %s: bad notes: %w", sh.ID, err)
	}
	for _, n := range notes {
		sh.Notes = append(sh.Notes, scheduling.Note{Type: scheduling.NoteType(n.Type), Text: n.Text})
	}
	return sh, nil
}

// =============================================================================
// ABSENCE STORE (scheduling.AbsenceStore interface)
// =============================================================================

const absenceColumns = `id, company_id, employee_id, type, start_date, end_date,
	window_start, window_end, status, total_days, total_hours,
	approver_id, approval_date, comment, created_at`

// AbsencesInRange returns absences whose period overlaps [from, to].
func (s *Store) AbsencesInRange(ctx context.Context, companyID scheduling.CompanyID, from, to generic.TimePoint) ([]scheduling.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + absenceColumns + `
		FROM absences
		WHERE company_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date ASC, id ASC`
	return s.queryAbsences(ctx, query, companyID, to.Time.Format(dateLayout), from.Time.Format(dateLayout))
}

// AbsencesForEmployee returns every absence of the employee.
func (s *Store) AbsencesForEmployee(ctx context.Context, employeeID scheduling.EmployeeID) ([]scheduling.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + absenceColumns + `
		FROM absences WHERE employee_id = ?
		ORDER BY start_date ASC, id ASC`
	return s.queryAbsences(ctx, query, employeeID)
}

// GetAbsence returns an absence by ID, nil if unknown.
func (s *Store) GetAbsence(ctx context.Context, id scheduling.AbsenceID) (*scheduling.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+absenceColumns+` FROM absences WHERE id = ?`, id)
	a, err := scanAbsence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, generic.WrapStore("get absence", err)
	}
	return &a, nil
}

// SaveAbsence inserts a new absence.
func (s *Store) SaveAbsence(ctx context.Context, a scheduling.Absence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO absences (` + absenceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, absenceArgs(a)...)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("absence %s already exists: %w", a.ID, generic.ErrNotApplicable)
	}
	return generic.WrapStore("save absence", err)
}

// UpdateAbsence rewrites the decision fields of an existing absence.
func (s *Store) UpdateAbsence(ctx context.Context, a scheduling.Absence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var approvalDate *string
	if a.ApprovalDate != nil {
		d := a.ApprovalDate.Time.Format(dateLayout)
		approvalDate = &d
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE absences
		SET status = ?, approver_id = ?, approval_date = ?, comment = ?,
			total_days = ?, total_hours = ?
		WHERE id = ?`,
		a.Status, nullString(a.ApproverID), approvalDate, nullString(a.Comment),
		a.TotalDays.Value.String(), a.TotalHours.Value.String(), a.ID,
	)
	if err != nil {
		return generic.WrapStore("update absence", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("absence %s: %w", a.ID, generic.ErrNotFound)
	}
	return nil
}

func absenceArgs(a scheduling.Absence) []any {
	var windowStart, windowEnd *int
	if a.Window != nil {
		ws, we := int(a.Window.Start), int(a.Window.End)
		windowStart, windowEnd = &ws, &we
	}
	var approvalDate *string
	if a.ApprovalDate != nil {
		d := a.ApprovalDate.Time.Format(dateLayout)
		approvalDate = &d
	}
	return []any{
		a.ID, a.CompanyID, a.EmployeeID, a.Type,
		a.Period.Start.Time.Format(dateLayout), a.Period.End.Time.Format(dateLayout),
		windowStart, windowEnd, a.Status,
		a.TotalDays.Value.String(), a.TotalHours.Value.String(),
		nullString(a.ApproverID), approvalDate, nullString(a.Comment),
		a.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (s *Store) queryAbsences(ctx context.Context, query string, args ...any) ([]scheduling.Absence, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, generic.WrapStore("query absences", err)
	}
	defer rows.Close()

	var out []scheduling.Absence
	for rows.Next() {
		a, err := scanAbsence(rows)
		if err != nil {
			return nil, generic.WrapStore("scan absence", err)
		}
		out = append(out, a)
	}
	return out, generic.WrapStore("iterate absences", rows.Err())
}

func scanAbsence(row scanner) (scheduling.Absence, error) {
	var (
		a                                 scheduling.Absence
		startDate, endDate                string
		windowStart, windowEnd            sql.NullInt64
		totalDays, totalHours, createdAt  string
		approverID, approvalDate, comment sql.NullString
	)
	if err := row.Scan(&a.ID, &a.CompanyID, &a.EmployeeID, &a.Type, &startDate, &endDate,
		&windowStart, &windowEnd, &a.Status, &totalDays, &totalHours,
		&approverID, &approvalDate, &comment, &createdAt); err != nil {
		return a, err
	}

	start, err := generic.ParseTimePoint(startDate)
	if err != nil {
		return a, err
	}
	end, err := generic.ParseTimePoint(endDate)
	if err != nil {
		return a, err
	}
	a.Period = generic.Period{Start: start, End: end}

	if windowStart.Valid && windowEnd.Valid {
		w := generic.NewTimeRange(generic.ClockTime(windowStart.Int64), generic.ClockTime(windowEnd.Int64))
		a.Window = &w
	}
	a.TotalDays = parseAmount(totalDays, generic.UnitDays)
	a.TotalHours = parseAmount(totalHours, generic.UnitHours)
	a.ApproverID = approverID.String
	a.Comment = comment.String
	if approvalDate.Valid {
		d, err := generic.ParseTimePoint(approvalDate.String)
		if err == nil {
			a.ApprovalDate = &d
		}
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return a, nil
}

// =============================================================================
// CONTRACT STORE (scheduling.ContractStore interface)
// =============================================================================

const contractColumns = `employee_id, company_id, ccnl,
	vacation_days_limit, rol_hours_limit, paid_sick_days_limit,
	vacation_days_used, rol_hours_used, sick_days_used`

// ContractFor returns the employee's contract, nil if none.
func (s *Store) ContractFor(ctx context.Context, employeeID scheduling.EmployeeID) (*scheduling.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE employee_id = ?`, employeeID)
	c, err := scanContract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, generic.WrapStore("get contract", err)
	}
	return &c, nil
}

// UpdateContract upserts the contract row.
func (s *Store) UpdateContract(ctx context.Context, c scheduling.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO contracts (` + contractColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id) DO UPDATE SET
			company_id = excluded.company_id,
			ccnl = excluded.ccnl,
			vacation_days_limit = excluded.vacation_days_limit,
			rol_hours_limit = excluded.rol_hours_limit,
			paid_sick_days_limit = excluded.paid_sick_days_limit,
			vacation_days_used = excluded.vacation_days_used,
			rol_hours_used = excluded.rol_hours_used,
			sick_days_used = excluded.sick_days_used,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		c.EmployeeID, c.CompanyID, c.CCNL,
		c.VacationDaysLimit.Value.String(), c.ROLHoursLimit.Value.String(), c.PaidSickDaysLimit.Value.String(),
		c.VacationDaysUsed.Value.String(), c.ROLHoursUsed.Value.String(), c.SickDaysUsed.Value.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	return generic.WrapStore("update contract", err)
}

// ContractsForCompany lists contracts ordered by employee.
func (s *Store) ContractsForCompany(ctx context.Context, companyID scheduling.CompanyID) ([]scheduling.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE company_id = ? ORDER BY employee_id`, companyID)
	if err != nil {
		return nil, generic.WrapStore("query contracts", err)
	}
	defer rows.Close()

	var out []scheduling.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, generic.WrapStore("scan contract", err)
		}
		out = append(out, c)
	}
	return out, generic.WrapStore("iterate contracts", rows.Err())
}

func scanContract(row scanner) (scheduling.Contract, error) {
	var (
		c                            scheduling.Contract
		vdl, rhl, psl, vdu, rhu, sdu string
	)
	if err := row.Scan(&c.EmployeeID, &c.CompanyID, &c.CCNL, &vdl, &rhl, &psl, &vdu, &rhu, &sdu); err != nil {
		return c, err
	}
	c.VacationDaysLimit = parseAmount(vdl, generic.UnitDays)
	c.ROLHoursLimit = parseAmount(rhl, generic.UnitHours)
	c.PaidSickDaysLimit = parseAmount(psl, generic.UnitDays)
	c.VacationDaysUsed = parseAmount(vdu, generic.UnitDays)
	c.ROLHoursUsed = parseAmount(rhu, generic.UnitHours)
	c.SickDaysUsed = parseAmount(sdu, generic.UnitDays)
	return c, nil
}

// =============================================================================
// WEEKLY SHIFT STORE (scheduling.WeeklyShiftStore interface) - append-only
// =============================================================================

// SaveWeeklyShift appends a publication record. Records are never updated.
func (s *Store) SaveWeeklyShift(ctx context.Context, ws scheduling.WeeklyShift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := ws.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weekly_shifts (id, company_id, week_start, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		ws.ID, ws.CompanyID, ws.WeekStart.Time.Format(dateLayout), ws.Status,
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	return generic.WrapStore("save weekly shift", err)
}

// PublishedRecordForWeek returns the first PUBLISHED record of the week,
// nil if none.
func (s *Store) PublishedRecordForWeek(ctx context.Context, companyID scheduling.CompanyID, weekStart generic.TimePoint) (*scheduling.WeeklyShift, error) {
	return s.weeklyShift(ctx, `
		SELECT id, company_id, week_start, status, created_at
		FROM weekly_shifts
		WHERE company_id = ? AND week_start = ? AND status = 'PUBLISHED'
		ORDER BY seq ASC LIMIT 1`,
		companyID, weekStart.Time.Format(dateLayout))
}

// LatestWeeklyShift returns the newest record of the week, nil if none.
func (s *Store) LatestWeeklyShift(ctx context.Context, companyID scheduling.CompanyID, weekStart generic.TimePoint) (*scheduling.WeeklyShift, error) {
	return s.weeklyShift(ctx, `
		SELECT id, company_id, week_start, status, created_at
		FROM weekly_shifts
		WHERE company_id = ? AND week_start = ?
		ORDER BY seq DESC LIMIT 1`,
		companyID, weekStart.Time.Format(dateLayout))
}

func (s *Store) weeklyShift(ctx context.Context, query string, args ...any) (*scheduling.WeeklyShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		ws                   scheduling.WeeklyShift
		weekStart, createdAt string
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&ws.ID, &ws.CompanyID, &weekStart, &ws.Status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, generic.WrapStore("get weekly shift", err)
	}
	ws.WeekStart, err = generic.ParseTimePoint(weekStart)
	if err != nil {
		return nil, generic.WrapStore("parse week start", err)
	}
	ws.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &ws, nil
}

// ListCompanies returns every company owning a shift, contract or week.
func (s *Store) ListCompanies(ctx context.Context) ([]scheduling.CompanyID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT company_id FROM shifts
		UNION SELECT company_id FROM contracts
		UNION SELECT company_id FROM weekly_shifts
		ORDER BY 1`)
	if err != nil {
		return nil, generic.WrapStore("list companies", err)
	}
	defer rows.Close()

	var out []scheduling.CompanyID
	for rows.Next() {
		var id scheduling.CompanyID
		if err := rows.Scan(&id); err != nil {
			return nil, generic.WrapStore("scan company", err)
		}
		out = append(out, id)
	}
	return out, generic.WrapStore("iterate companies", rows.Err())
}

// =============================================================================
// AUDIT LOG (generic.AuditLog interface) - append-only
// =============================================================================

func (s *Store) Append(ctx context.Context, e generic.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, _ := json.Marshal(e.Payload)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, timestamp, actor_id, action, company_id, entity_id, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UTC().Format(time.RFC3339Nano), e.ActorID, e.Action,
		e.CompanyID, string(e.EntityID), string(payload),
	)
	return generic.WrapStore("append audit entry", err)
}

func (s *Store) Query(ctx context.Context, f generic.AuditFilter) ([]generic.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if f.CompanyID != nil {
		where = append(where, "company_id = ?")
		args = append(args, *f.CompanyID)
	}
	if f.EntityID != nil {
		where = append(where, "entity_id = ?")
		args = append(args, string(*f.EntityID))
	}
	if f.ActorID != nil {
		where = append(where, "actor_id = ?")
		args = append(args, *f.ActorID)
	}
	if len(f.Actions) > 0 {
		marks := make([]string, len(f.Actions))
		for i, a := range f.Actions {
			marks[i] = "?"
			args = append(args, string(a))
		}
		where = append(where, "action IN ("+strings.Join(marks, ", ")+")")
	}

	query := `SELECT id, timestamp, actor_id, action, company_id, entity_id, payload_json FROM audit_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, generic.WrapStore("query audit log", err)
	}
	defer rows.Close()

	var out []generic.AuditEntry
	for rows.Next() {
		var (
			e          generic.AuditEntry
			ts, entity string
			payload    sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &e.ActorID, &e.Action, &e.CompanyID, &entity, &payload); err != nil {
			return nil, generic.WrapStore("scan audit entry", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		e.EntityID = generic.EntityID(entity)
		if payload.Valid && payload.String != "" && payload.String != "null" {
			_ = json.Unmarshal([]byte(payload.String), &e.Payload)
		}
		out = append(out, e)
	}
	return out, generic.WrapStore("iterate audit log", rows.Err())
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"shifts", "absences", "contracts", "weekly_shifts", "audit_log"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return generic.WrapStore("reset "+table, err)
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseAmount(value string, unit generic.Unit) generic.Amount {
	return generic.Amount{
		Value: generic.MustParseDecimal(value),
		Unit:  unit,
	}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
