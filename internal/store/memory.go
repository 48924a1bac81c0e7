package store

import (
	"context"
	"sync"

	"qrattend/internal/model"
)

// Memory keeps both collections in process memory. Used for dev and tests.
type Memory struct {
	mu       sync.RWMutex
	students []model.Student
	records  []model.AttendanceRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// LoadStudents returns a copy of the roster.
func (m *Memory) LoadStudents(ctx context.Context) ([]model.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneStudents(m.students), nil
}

// SaveStudents replaces the roster with a copy of students.
func (m *Memory) SaveStudents(ctx context.Context, students []model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students = cloneStudents(students)
	return nil
}

// LoadRecords returns a copy of the attendance log.
func (m *Memory) LoadRecords(ctx context.Context) ([]model.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneRecords(m.records), nil
}

// AppendRecord adds rec to the end of the log.
func (m *Memory) AppendRecord(ctx context.Context, rec model.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
