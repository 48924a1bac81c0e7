package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"qrattend/internal/model"
)

// Dialect captures the differences between the SQL backends.
type Dialect struct {
	Name          string
	TimestampType string
	// positional reports whether placeholders are $1, $2... rather than ?.
	positional bool
}

var (
	DialectPostgres = Dialect{Name: "postgres", TimestampType: "TIMESTAMPTZ", positional: true}
	DialectSQLite   = Dialect{Name: "sqlite", TimestampType: "DATETIME"}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d Dialect) rebind(query string) string {
	if !d.positional {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQL persists both collections in a relational database.
type SQL struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQL wraps an open database and creates the schema if missing.
func NewSQL(db *sql.DB, dialect Dialect) (*SQL, error) {
	s := &SQL{db: db, dialect: dialect}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQL) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS students (
			id          TEXT PRIMARY KEY,
			position    INTEGER NOT NULL,
			name        TEXT NOT NULL,
			roll_number TEXT NOT NULL,
			email       TEXT NOT NULL DEFAULT '',
			course      TEXT NOT NULL DEFAULT '',
			qr_code_url TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS attendance_records (
			id           TEXT PRIMARY KEY,
			student_id   TEXT NOT NULL,
			student_name TEXT NOT NULL,
			roll_number  TEXT NOT NULL,
			occurred_at  ` + s.dialect.TimestampType + ` NOT NULL,
			day          TEXT NOT NULL,
			status       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_records_day ON attendance_records(day)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadStudents returns the roster in saved order.
func (s *SQL) LoadStudents(ctx context.Context) ([]model.Student, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, roll_number, email, course, qr_code_url
		FROM students
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.RollNumber, &st.Email, &st.Course, &st.QRCodeURL); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// SaveStudents replaces the whole roster in one transaction.
func (s *SQL) SaveStudents(ctx context.Context, students []model.Student) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM students`); err != nil {
		return err
	}
	insert := s.dialect.rebind(`
		INSERT INTO students (id, position, name, roll_number, email, course, qr_code_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	for i, st := range students {
		if _, err := tx.ExecContext(ctx, insert, st.ID, i, st.Name, st.RollNumber, st.Email, st.Course, st.QRCodeURL); err != nil {
			return fmt.Errorf("insert student %s: %w", st.ID, err)
		}
	}
	return tx.Commit()
}

// LoadRecords returns the full log oldest first.
func (s *SQL) LoadRecords(ctx context.Context) ([]model.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, student_id, student_name, roll_number, occurred_at, day, status
		FROM attendance_records
		ORDER BY occurred_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		var rec model.AttendanceRecord
		var status string
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.StudentName, &rec.RollNumber, &rec.Timestamp, &rec.Date, &status); err != nil {
			return nil, err
		}
		if rec.Status, err = model.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		rec.Timestamp = rec.Timestamp.UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

// AppendRecord inserts one record.
func (s *SQL) AppendRecord(ctx context.Context, rec model.AttendanceRecord) error {
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO attendance_records (id, student_id, student_name, roll_number, occurred_at, day, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), rec.ID, rec.StudentID, rec.StudentName, rec.RollNumber, rec.Timestamp.UTC(), rec.Date, string(rec.Status))
	return err
}

// Healthy pings the database.
func (s *SQL) Healthy(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

// Close closes the underlying connection.
func (s *SQL) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
