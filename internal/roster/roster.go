package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"qrattend/internal/model"
	"qrattend/internal/store"
)

var (
	// ErrValidation wraps missing or malformed form fields.
	ErrValidation = errors.New("invalid student")
	// ErrNotFound means no student has the given id.
	ErrNotFound = errors.New("student not found")
)

// Input is the roster form. All fields are required.
type Input struct {
	Name       string `json:"name" validate:"required"`
	RollNumber string `json:"rollNumber" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Course     string `json:"course" validate:"required"`
}

func (in Input) trimmed() Input {
	return Input{
		Name:       strings.TrimSpace(in.Name),
		RollNumber: strings.TrimSpace(in.RollNumber),
		Email:      strings.TrimSpace(in.Email),
		Course:     strings.TrimSpace(in.Course),
	}
}

// Observer is told about roster mutations.
type Observer interface {
	ObserveRosterChange(action string)
}

// Service manages the student roster. Every write replaces the stored
// collection.
type Service struct {
	store    store.RosterStore
	validate *validator.Validate
	observer Observer
	mu       sync.Mutex
}

// NewService creates a roster service. observer may be nil.
func NewService(s store.RosterStore, observer Observer) *Service {
	return &Service{store: s, validate: validator.New(), observer: observer}
}

// List returns all students in roster order.
func (s *Service) List(ctx context.Context) ([]model.Student, error) {
	students, err := s.store.LoadStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	if students == nil {
		students = []model.Student{}
	}
	return students, nil
}

// Get returns one student.
func (s *Service) Get(ctx context.Context, id string) (model.Student, error) {
	students, err := s.List(ctx)
	if err != nil {
		return model.Student{}, err
	}
	i := indexOf(students, id)
	if i < 0 {
		return model.Student{}, ErrNotFound
	}
	return students[i], nil
}

// Add validates the form and appends a new student with a fresh id.
func (s *Service) Add(ctx context.Context, in Input) (model.Student, error) {
	in = in.trimmed()
	if err := s.check(in); err != nil {
		return model.Student{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	students, err := s.List(ctx)
	if err != nil {
		return model.Student{}, err
	}
	st := model.Student{
		ID:         "student-" + uuid.NewString(),
		Name:       in.Name,
		RollNumber: in.RollNumber,
		Email:      in.Email,
		Course:     in.Course,
	}
	if err := s.save(ctx, append(students, st)); err != nil {
		return model.Student{}, err
	}
	s.observe("add")
	return st, nil
}

// Update replaces the form fields of an existing student. The id and any
// uploaded QR code URL are kept. Past attendance records are not touched.
func (s *Service) Update(ctx context.Context, id string, in Input) (model.Student, error) {
	in = in.trimmed()
	if err := s.check(in); err != nil {
		return model.Student{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	students, err := s.List(ctx)
	if err != nil {
		return model.Student{}, err
	}
	i := indexOf(students, id)
	if i < 0 {
		return model.Student{}, ErrNotFound
	}
	students[i].Name = in.Name
	students[i].RollNumber = in.RollNumber
	students[i].Email = in.Email
	students[i].Course = in.Course
	if err := s.save(ctx, students); err != nil {
		return model.Student{}, err
	}
	s.observe("update")
	return students[i], nil
}

// Delete removes a student from the roster.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	students, err := s.List(ctx)
	if err != nil {
		return err
	}
	i := indexOf(students, id)
	if i < 0 {
		return ErrNotFound
	}
	if err := s.save(ctx, append(students[:i], students[i+1:]...)); err != nil {
		return err
	}
	s.observe("delete")
	return nil
}

// SetQRCodeURL records where the student's generated code was uploaded.
func (s *Service) SetQRCodeURL(ctx context.Context, id, url string) (model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	students, err := s.List(ctx)
	if err != nil {
		return model.Student{}, err
	}
	i := indexOf(students, id)
	if i < 0 {
		return model.Student{}, ErrNotFound
	}
	students[i].QRCodeURL = url
	if err := s.save(ctx, students); err != nil {
		return model.Student{}, err
	}
	return students[i], nil
}

// SeedSample stores the sample roster when no students exist yet. It
// reports whether anything was written.
func (s *Service) SeedSample(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	students, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	if len(students) > 0 {
		return false, nil
	}
	if err := s.save(ctx, SampleStudents()); err != nil {
		return false, err
	}
	s.observe("seed")
	return true, nil
}

func (s *Service) check(in Input) error {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fieldName(fe.Field())+" ("+fe.Tag()+")")
			}
			return fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func (s *Service) save(ctx context.Context, students []model.Student) error {
	if err := s.store.SaveStudents(ctx, students); err != nil {
		return fmt.Errorf("save roster: %w", err)
	}
	return nil
}

func (s *Service) observe(action string) {
	if s.observer != nil {
		s.observer.ObserveRosterChange(action)
	}
}

func indexOf(students []model.Student, id string) int {
	for i := range students {
		if students[i].ID == id {
			return i
		}
	}
	return -1
}

// fieldName maps struct fields to their JSON names for error messages.
func fieldName(f string) string {
	switch f {
	case "RollNumber":
		return "rollNumber"
	case "Name":
		return "name"
	case "Email":
		return "email"
	case "Course":
		return "course"
	}
	return f
}
