package roster

import (
	"time"

	"qrattend/internal/model"
)

// SampleStudents is the demo roster loaded when SEED_SAMPLE is set.
func SampleStudents() []model.Student {
	return []model.Student{
		{ID: "student-001", Name: "Alice Johnson", RollNumber: "CS001", Email: "alice.johnson@university.edu", Course: "Computer Science"},
		{ID: "student-002", Name: "Bob Smith", RollNumber: "CS002", Email: "bob.smith@university.edu", Course: "Computer Science"},
		{ID: "student-003", Name: "Carol Davis", RollNumber: "CS003", Email: "carol.davis@university.edu", Course: "Computer Science"},
		{ID: "student-004", Name: "David Wilson", RollNumber: "EE001", Email: "david.wilson@university.edu", Course: "Electrical Engineering"},
		{ID: "student-005", Name: "Emma Brown", RollNumber: "EE002", Email: "emma.brown@university.edu", Course: "Electrical Engineering"},
	}
}

// SampleRecords is the demo attendance for the day of now: two on-time
// arrivals and one late one.
func SampleRecords(now time.Time) []model.AttendanceRecord {
	day := now.Format(model.DateLayout)
	ts := now.UTC()
	return []model.AttendanceRecord{
		{ID: "att-001", StudentID: "student-001", StudentName: "Alice Johnson", RollNumber: "CS001", Timestamp: ts, Date: day, Status: model.StatusPresent},
		{ID: "att-002", StudentID: "student-002", StudentName: "Bob Smith", RollNumber: "CS002", Timestamp: ts, Date: day, Status: model.StatusPresent},
		{ID: "att-003", StudentID: "student-003", StudentName: "Carol Davis", RollNumber: "CS003", Timestamp: ts, Date: day, Status: model.StatusLate},
	}
}
