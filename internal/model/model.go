package model

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used for AttendanceRecord.Date.
const DateLayout = "2006-01-02"

// Student represents an enrolled student.
type Student struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber"`
	Email      string `json:"email"`
	Course     string `json:"course"`
	QRCodeURL  string `json:"qrCode,omitempty"` // CDN URL of the uploaded code
}

// Status is the attendance state of a record.
type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	// StatusAbsent is never written by the scan path.
	StatusAbsent Status = "absent"
)

// ParseStatus accepts only the three known statuses.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPresent, StatusLate, StatusAbsent:
		return st, nil
	}
	return "", fmt.Errorf("unknown attendance status %q", s)
}

// Attended reports whether the status counts as attendance for the day.
func (s Status) Attended() bool {
	return s == StatusPresent || s == StatusLate
}

// AttendanceRecord is a single entry of the attendance log. Name and roll
// number are copied from the student at scan time.
type AttendanceRecord struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName"`
	RollNumber  string    `json:"rollNumber"`
	Timestamp   time.Time `json:"timestamp"`
	Date        string    `json:"date"`
	Status      Status    `json:"status"`
}

// Stats are the aggregate figures shown on the dashboard.
type Stats struct {
	Date           string  `json:"date"`
	TotalStudents  int     `json:"totalStudents"`
	PresentToday   int     `json:"presentToday"`
	OnTimeToday    int     `json:"onTimeToday"`
	LateToday      int     `json:"lateToday"`
	AbsentToday    int     `json:"absentToday"`
	AttendanceRate float64 `json:"attendanceRate"`
}

// Consistent is false when more students attended than are enrolled, which
// happens when records reference removed students.
func (s Stats) Consistent() bool {
	return s.AbsentToday >= 0
}

// DayStats is one bar of the weekly chart.
type DayStats struct {
	Date    string `json:"date"`
	Present int    `json:"present"`
	Absent  int    `json:"absent"`
}
