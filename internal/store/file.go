package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"qrattend/internal/model"
)

const (
	studentsFile = "students.json"
	recordsFile  = "attendanceRecords.json"
)

// File stores each collection as a JSON document under a data directory.
type File struct {
	dir string
	mu  sync.RWMutex
}

// NewFile creates the data directory if needed.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &File{dir: dir}, nil
}

// LoadStudents reads students.json; a missing file is an empty roster.
func (f *File) LoadStudents(ctx context.Context) ([]model.Student, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var students []model.Student
	if err := f.read(studentsFile, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// SaveStudents rewrites students.json.
func (f *File) SaveStudents(ctx context.Context, students []model.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if students == nil {
		students = []model.Student{}
	}
	return f.write(studentsFile, students)
}

// LoadRecords reads attendanceRecords.json; a missing file is an empty log.
func (f *File) LoadRecords(ctx context.Context) ([]model.AttendanceRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var records []model.AttendanceRecord
	if err := f.read(recordsFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// AppendRecord is a load-modify-save of the whole log.
func (f *File) AppendRecord(ctx context.Context, rec model.AttendanceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var records []model.AttendanceRecord
	if err := f.read(recordsFile, &records); err != nil {
		return err
	}
	return f.write(recordsFile, append(records, rec))
}

// Close is a no-op.
func (f *File) Close() error { return nil }

func (f *File) read(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // nothing saved yet
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// write replaces the document atomically via a temp file and rename.
func (f *File) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	path := filepath.Join(f.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
