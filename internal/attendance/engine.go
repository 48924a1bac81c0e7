package attendance

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"qrattend/internal/model"
)

// Policy holds the daily timing rules for classifying a scan.
type Policy struct {
	// ClassStart is the offset from local midnight at which class begins.
	ClassStart time.Duration
	// LateAfter is how long after ClassStart a scan still counts as present.
	LateAfter time.Duration
}

// DefaultPolicy is class at 09:00 with a 15 minute grace period.
func DefaultPolicy() Policy {
	return Policy{ClassStart: 9 * time.Hour, LateAfter: 15 * time.Minute}
}

// Cutoff returns the class start instant on the calendar day of now.
func (p Policy) Cutoff(now time.Time) time.Time {
	y, m, d := now.Date()
	// wall clock fields, so a DST change that day does not shift the cutoff
	h := int(p.ClassStart / time.Hour)
	min := int(p.ClassStart % time.Hour / time.Minute)
	sec := int(p.ClassStart % time.Minute / time.Second)
	return time.Date(y, m, d, h, min, sec, int(p.ClassStart%time.Second), now.Location())
}

// Classify decides between present and late for a scan at now.
func (p Policy) Classify(now time.Time) model.Status {
	// strictly greater: a scan exactly LateAfter past the cutoff is present
	if now.Sub(p.Cutoff(now)) > p.LateAfter {
		return model.StatusLate
	}
	return model.StatusPresent
}

// Outcome is the kind of decision reached for a scan.
type Outcome int

const (
	Accepted Outcome = iota + 1
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Duplicate:
		return "duplicate"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Decision is the result of evaluating a scan. Record is set when the scan
// was accepted; Existing points at the earlier record on a duplicate.
type Decision struct {
	Outcome  Outcome
	Record   model.AttendanceRecord
	Existing *model.AttendanceRecord
}

// Evaluate decides whether a scan of student at now should be recorded. It
// performs no I/O; the caller persists Record when the outcome is Accepted.
// The calendar day is taken in now's location. A nil student is a
// programming error and panics.
func Evaluate(student *model.Student, existing []model.AttendanceRecord, now time.Time, policy Policy) Decision {
	if student == nil || student.ID == "" {
		panic("attendance: Evaluate called without a resolved student")
	}

	today := now.Format(model.DateLayout)
	for i := range existing {
		if existing[i].StudentID == student.ID && existing[i].Date == today {
			prev := existing[i]
			return Decision{Outcome: Duplicate, Existing: &prev}
		}
	}

	return Decision{
		Outcome: Accepted,
		Record: model.AttendanceRecord{
			ID:          student.ID + "-" + uuid.NewString(),
			StudentID:   student.ID,
			StudentName: student.Name,
			RollNumber:  student.RollNumber,
			Timestamp:   now.UTC(),
			Date:        today,
			Status:      policy.Classify(now),
		},
	}
}
