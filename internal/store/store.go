package store

import (
	"context"
	"fmt"

	"qrattend/internal/model"
)

// RosterStore persists the list of enrolled students as a whole collection.
type RosterStore interface {
	LoadStudents(ctx context.Context) ([]model.Student, error)
	SaveStudents(ctx context.Context, students []model.Student) error
}

// AttendanceStore persists the append-only attendance log. It does not
// enforce uniqueness of records.
type AttendanceStore interface {
	LoadRecords(ctx context.Context) ([]model.AttendanceRecord, error)
	AppendRecord(ctx context.Context, rec model.AttendanceRecord) error
}

// Store is a backend serving both collections.
type Store interface {
	RosterStore
	AttendanceStore
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend     string
	DataDir     string
	SQLitePath  string
	DatabaseURL string
	Redis       *Redis
}

// Open builds the backend named by opts.Backend.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(opts.DataDir)
	case "sqlite":
		db, err := NewSQLite(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return NewSQL(db, DialectSQLite)
	case "postgres":
		db, err := NewPostgres(opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return NewSQL(db, DialectPostgres)
	case "redis":
		if opts.Redis == nil {
			return nil, fmt.Errorf("redis backend requires a redis client")
		}
		return NewRedisStore(opts.Redis.Client, ""), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
}

func cloneStudents(in []model.Student) []model.Student {
	out := make([]model.Student, len(in))
	copy(out, in)
	return out
}

func cloneRecords(in []model.AttendanceRecord) []model.AttendanceRecord {
	out := make([]model.AttendanceRecord, len(in))
	copy(out, in)
	return out
}
