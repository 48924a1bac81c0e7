package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"qrattend/internal/model"
	"qrattend/internal/qrcode"
	"qrattend/internal/queue"
	"qrattend/internal/store"
)

// Observer receives one call per scan with its outcome label.
type Observer interface {
	ObserveScan(outcome string)
}

// Publisher forwards accepted records to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, msg queue.Message) error
}

// Scan outcome labels reported to the Observer.
const (
	LabelPresent   = "present"
	LabelLate      = "late"
	LabelDuplicate = "duplicate"
	LabelNotFound  = "not_found"
	LabelNoCode    = "no_code"
	LabelError     = "error"
)

// Service coordinates scans against the roster and attendance stores.
// Scans are serialized so each decision sees every earlier record.
type Service struct {
	roster  store.RosterStore
	records store.AttendanceStore
	policy  Policy
	loc     *time.Location
	now     func() time.Time

	codec     *qrcode.Codec
	observer  Observer
	publisher Publisher

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the time zone that defines the calendar day.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithCodec enables ScanImage.
func WithCodec(c *qrcode.Codec) Option {
	return func(s *Service) { s.codec = c }
}

// WithObserver reports scan outcomes, e.g. to metrics.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithPublisher emits an event for every accepted scan.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// NewService creates a service backed by the given stores.
func NewService(roster store.RosterStore, records store.AttendanceStore, policy Policy, opts ...Option) *Service {
	s := &Service{
		roster:  roster,
		records: records,
		policy:  policy,
		loc:     time.Local,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now is the current instant in the class time zone.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// Today is the current calendar day in the class time zone.
func (s *Service) Today() string {
	return s.Now().Format(model.DateLayout)
}

// Scan resolves the scanned text, decides and persists the attendance
// record. A duplicate is reported through the Decision, not as an error.
func (s *Service) Scan(ctx context.Context, payload string) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.roster.LoadStudents(ctx)
	if err != nil {
		s.observe(LabelError)
		return Decision{}, fmt.Errorf("load roster: %w", err)
	}
	student, err := Resolve(payload, students)
	if err != nil {
		s.observe(LabelNotFound)
		return Decision{}, err
	}

	existing, err := s.records.LoadRecords(ctx)
	if err != nil {
		s.observe(LabelError)
		return Decision{}, fmt.Errorf("load records: %w", err)
	}

	d := Evaluate(student, existing, s.Now(), s.policy)
	if d.Outcome == Duplicate {
		s.observe(LabelDuplicate)
		return d, nil
	}

	if err := s.records.AppendRecord(ctx, d.Record); err != nil {
		s.observe(LabelError)
		return Decision{}, fmt.Errorf("append record: %w", err)
	}
	s.observe(string(d.Record.Status))
	s.publish(ctx, d.Record)
	return d, nil
}

// ScanImage reads a QR code from a camera frame and scans its text.
func (s *Service) ScanImage(ctx context.Context, img []byte) (Decision, error) {
	if s.codec == nil {
		return Decision{}, errors.New("image scanning not configured")
	}
	text, err := s.codec.Decode(img)
	if err != nil {
		if errors.Is(err, qrcode.ErrNoCode) {
			s.observe(LabelNoCode)
		}
		return Decision{}, err
	}
	return s.Scan(ctx, text)
}

// SeedRecords appends recs when the attendance log is empty. It reports
// whether anything was written. No events are published for seeded records.
func (s *Service) SeedRecords(ctx context.Context, recs []model.AttendanceRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.records.LoadRecords(ctx)
	if err != nil {
		return false, fmt.Errorf("load records: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}
	for _, rec := range recs {
		if err := s.records.AppendRecord(ctx, rec); err != nil {
			return false, fmt.Errorf("append record: %w", err)
		}
	}
	return len(recs) > 0, nil
}

// Log returns every record in stored order.
func (s *Service) Log(ctx context.Context) ([]model.AttendanceRecord, error) {
	return s.records.LoadRecords(ctx)
}

// Records lists records newest first, optionally for one day and capped at
// limit when limit > 0.
func (s *Service) Records(ctx context.Context, date string, limit int) ([]model.AttendanceRecord, error) {
	all, err := s.records.LoadRecords(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.AttendanceRecord, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if date != "" && all[i].Date != date {
			continue
		}
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Stats summarizes the given day, or today when date is empty.
func (s *Service) Stats(ctx context.Context, date string) (model.Stats, error) {
	if date == "" {
		date = s.Today()
	}
	students, records, err := s.snapshot(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	st := Summarize(students, records, date)
	if !st.Consistent() {
		log.Printf("attendance: %s has %d attendees for %d enrolled students", date, st.PresentToday, st.TotalStudents)
	}
	return st, nil
}

// Weekly returns per-day counts for the last n days including today.
func (s *Service) Weekly(ctx context.Context, n int) ([]model.DayStats, error) {
	students, records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return SummarizeDays(students, records, LastNDays(s.Now(), n)), nil
}

func (s *Service) snapshot(ctx context.Context) ([]model.Student, []model.AttendanceRecord, error) {
	students, err := s.roster.LoadStudents(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load roster: %w", err)
	}
	records, err := s.records.LoadRecords(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load records: %w", err)
	}
	return students, records, nil
}

func (s *Service) observe(label string) {
	if s.observer != nil {
		s.observer.ObserveScan(label)
	}
}

func (s *Service) publish(ctx context.Context, rec model.AttendanceRecord) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(rec)
	if err != nil {
		log.Printf("encode event %s failed: %v", rec.ID, err)
		return
	}
	if err := s.publisher.Publish(ctx, queue.Message{Type: queue.TypeAttendanceMarked, Body: body}); err != nil {
		log.Printf("queue publish failed: %v", err)
	}
}
