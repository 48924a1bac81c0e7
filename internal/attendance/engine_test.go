package attendance

import (
	"strings"
	"testing"
	"time"

	"qrattend/internal/model"
)

var classZone = time.FixedZone("class", 2*60*60)

func at(hour, min, sec, nsec int) time.Time {
	return time.Date(2026, 10, 14, hour, min, sec, nsec, classZone)
}

var alice = model.Student{ID: "student-001", Name: "Alice Johnson", RollNumber: "CS001", Email: "alice@example.edu", Course: "Computer Science"}

func TestEvaluateClassification(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want model.Status
	}{
		{"early", at(7, 45, 0, 0), model.StatusPresent},
		{"at cutoff", at(9, 0, 0, 0), model.StatusPresent},
		{"within grace", at(9, 10, 0, 0), model.StatusPresent},
		{"exactly fifteen minutes", at(9, 15, 0, 0), model.StatusPresent},
		{"one millisecond over", at(9, 15, 0, int(time.Millisecond)), model.StatusLate},
		{"one second over", at(9, 15, 1, 0), model.StatusLate},
		{"afternoon", at(14, 0, 0, 0), model.StatusLate},
		{"just before midnight", at(23, 59, 59, 0), model.StatusLate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(&alice, nil, tt.now, DefaultPolicy())
			if d.Outcome != Accepted {
				t.Fatalf("outcome = %v, want accepted", d.Outcome)
			}
			if d.Record.Status != tt.want {
				t.Errorf("status = %s, want %s", d.Record.Status, tt.want)
			}
			if d.Record.Date != "2026-10-14" {
				t.Errorf("date = %s", d.Record.Date)
			}
		})
	}
}

func TestEvaluateRecordFields(t *testing.T) {
	now := at(8, 30, 0, 0)
	d := Evaluate(&alice, nil, now, DefaultPolicy())
	rec := d.Record
	if rec.StudentID != alice.ID || rec.StudentName != alice.Name || rec.RollNumber != alice.RollNumber {
		t.Errorf("denormalized fields wrong: %+v", rec)
	}
	if !rec.Timestamp.Equal(now) || rec.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp = %v, want %v in UTC", rec.Timestamp, now)
	}
	if !strings.HasPrefix(rec.ID, alice.ID+"-") {
		t.Errorf("id = %q", rec.ID)
	}
	if d.Existing != nil {
		t.Error("accepted decision should not carry an existing record")
	}

	other := Evaluate(&alice, nil, now, DefaultPolicy())
	if other.Record.ID == rec.ID {
		t.Error("record ids must be unique")
	}
}

func TestEvaluateUsesLocalCalendarDay(t *testing.T) {
	// 00:30 local is still the previous day in UTC
	now := time.Date(2026, 10, 14, 0, 30, 0, 0, classZone)
	d := Evaluate(&alice, nil, now, DefaultPolicy())
	if d.Record.Date != "2026-10-14" {
		t.Fatalf("date = %s, want local day 2026-10-14", d.Record.Date)
	}
	if d.Record.Status != model.StatusPresent {
		t.Fatalf("status = %s", d.Record.Status)
	}
}

func TestEvaluateDuplicate(t *testing.T) {
	first := Evaluate(&alice, nil, at(8, 50, 0, 0), DefaultPolicy())
	log := []model.AttendanceRecord{first.Record}

	for _, now := range []time.Time{at(8, 51, 0, 0), at(9, 30, 0, 0), at(23, 0, 0, 0)} {
		d := Evaluate(&alice, log, now, DefaultPolicy())
		if d.Outcome != Duplicate {
			t.Fatalf("at %v outcome = %v, want duplicate", now, d.Outcome)
		}
		if d.Existing == nil || d.Existing.ID != first.Record.ID {
			t.Fatalf("existing = %+v", d.Existing)
		}
		if d.Record.ID != "" {
			t.Fatal("duplicate must not produce a record")
		}
	}
}

func TestEvaluateDuplicateIgnoresOtherDaysAndStudents(t *testing.T) {
	bob := model.Student{ID: "student-002", Name: "Bob Smith", RollNumber: "CS002"}
	log := []model.AttendanceRecord{
		{ID: "old", StudentID: alice.ID, Date: "2026-10-13", Status: model.StatusPresent},
		{ID: "bob", StudentID: bob.ID, Date: "2026-10-14", Status: model.StatusLate},
	}
	if d := Evaluate(&alice, log, at(9, 0, 0, 0), DefaultPolicy()); d.Outcome != Accepted {
		t.Fatalf("outcome = %v, want accepted", d.Outcome)
	}
}

func TestEvaluateDuplicateAnyStatus(t *testing.T) {
	log := []model.AttendanceRecord{{ID: "x", StudentID: alice.ID, Date: "2026-10-14", Status: model.StatusAbsent}}
	if d := Evaluate(&alice, log, at(9, 0, 0, 0), DefaultPolicy()); d.Outcome != Duplicate {
		t.Fatalf("outcome = %v, want duplicate", d.Outcome)
	}
}

func TestEvaluateCustomPolicy(t *testing.T) {
	p := Policy{ClassStart: 13*time.Hour + 30*time.Minute, LateAfter: 5 * time.Minute}
	if got := p.Classify(at(13, 35, 0, 0)); got != model.StatusPresent {
		t.Errorf("13:35 = %s, want present", got)
	}
	if got := p.Classify(at(13, 35, 1, 0)); got != model.StatusLate {
		t.Errorf("13:35:01 = %s, want late", got)
	}
	if got, want := p.Cutoff(at(8, 0, 0, 0)), at(13, 30, 0, 0); !got.Equal(want) {
		t.Errorf("cutoff = %v, want %v", got, want)
	}
}

func TestCutoffKeepsWallClockOnDSTDay(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// clocks go back at 03:00 on 2026-10-25
	now := time.Date(2026, 10, 25, 12, 0, 0, 0, loc)
	cutoff := DefaultPolicy().Cutoff(now)
	if cutoff.Hour() != 9 || cutoff.Minute() != 0 {
		t.Fatalf("cutoff = %v, want 09:00 local", cutoff)
	}
}

func TestEvaluateNilStudentPanics(t *testing.T) {
	for name, st := range map[string]*model.Student{"nil": nil, "empty id": {Name: "Nobody"}} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			Evaluate(st, nil, at(9, 0, 0, 0), DefaultPolicy())
		})
	}
}

func TestOutcomeString(t *testing.T) {
	if Accepted.String() != "accepted" || Duplicate.String() != "duplicate" {
		t.Fatalf("got %s, %s", Accepted, Duplicate)
	}
	if Outcome(0).String() != "outcome(0)" {
		t.Fatalf("got %s", Outcome(0))
	}
}
