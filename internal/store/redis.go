package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"qrattend/internal/model"
)

// Redis wraps redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// Close closes the client.
func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

// RedisStore keeps the roster as one JSON value and the log as a list of
// JSON records.
type RedisStore struct {
	client      *redis.Client
	studentsKey string
	recordsKey  string
}

// NewRedisStore uses keys "<prefix>students" and "<prefix>attendanceRecords".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client:      client,
		studentsKey: prefix + "students",
		recordsKey:  prefix + "attendanceRecords",
	}
}

// LoadStudents decodes the roster value; a missing key is an empty roster.
func (s *RedisStore) LoadStudents(ctx context.Context) ([]model.Student, error) {
	data, err := s.client.Get(ctx, s.studentsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var students []model.Student
	if err := json.Unmarshal(data, &students); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.studentsKey, err)
	}
	return students, nil
}

// SaveStudents overwrites the roster value.
func (s *RedisStore) SaveStudents(ctx context.Context, students []model.Student) error {
	if students == nil {
		students = []model.Student{}
	}
	data, err := json.Marshal(students)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.studentsKey, data, 0).Err()
}

// LoadRecords decodes every item of the records list in order.
func (s *RedisStore) LoadRecords(ctx context.Context) ([]model.AttendanceRecord, error) {
	items, err := s.client.LRange(ctx, s.recordsKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	records := make([]model.AttendanceRecord, 0, len(items))
	for i, item := range items {
		var rec model.AttendanceRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode %s[%d]: %w", s.recordsKey, i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// AppendRecord pushes rec onto the tail of the records list.
func (s *RedisStore) AppendRecord(ctx context.Context, rec model.AttendanceRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.RPush(ctx, s.recordsKey, data).Err()
}

// Close is a no-op; the client is owned by the caller.
func (s *RedisStore) Close() error { return nil }
